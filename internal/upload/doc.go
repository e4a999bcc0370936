// Package upload sends recorded meeting media to the storage URL issued by
// the backend's /upload-url endpoint.
package upload
