// Package s3 provides an Amazon S3 implementation of the
// blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.NewFromDefaultConfig(ctx, "my-bucket", "snapshots/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	blob, err := store.Open(ctx, "keys-2026-08.pgm")
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads with CRC32C integrity checks for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//
// DDBCommitStore layers a DynamoDB commit log on top of the store so
// multiple writers can atomically advance a CURRENT pointer to the
// latest published snapshot.
package s3
