// Package minio provides a blobstore.BlobStore implementation using the
// MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses
// the official MinIO Go client, which also works against other
// S3-compatible backends like Ceph, SeaweedFS, and Garage, without any
// AWS dependencies.
//
// # Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "snapshots/")
package minio
