// Package upload stores images uploaded from the rich document editor.
//
// The editor posts each image to Handler before the image enters the
// document. The response carries a reference URL; the editor writes it onto
// the placeholder element and the attachment tracker records it.
//
//	store, _ := upload.NewDiskStore("uploads", "/uploads/", 10<<20)
//	r.Post("/image/upload", upload.Handler(store, upload.DefaultConfig()).ServeHTTP)
//
// # Lifecycle
//
// Saved images are temporary. When the document is saved, the references in
// its hidden fields are claimed. Cleanup removes temporary images older than
// a cutoff, which covers images inserted and then deleted before saving.
//
// # Security
//
// The content type is sniffed from the file's first bytes with
// http.DetectContentType; the client's part header is not trusted. File
// names are reduced to a safe base name plus a random suffix.
//
// # Backends
//
//   - DiskStore: local directory with a JSON sidecar per image.
//   - S3Store: an S3 bucket (aws-sdk-go-v2), optionally serving presigned
//     GET URLs for private buckets.
package upload
