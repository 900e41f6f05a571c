// Package remote defines the boundary between the local repository engine
// and a synchronisation server: authentication, push and clone. Flux's
// core treats these as black-box RPCs; no transport is implemented here.
package remote

import (
	"context"
	"io"
)

// Credentials identifies a user to the remote for Auth and Push.
type Credentials struct {
	UserName  string
	UserEmail string
}

// Chunk is one piece of a streamed archive transfer.
type Chunk struct {
	Content []byte
}

// UploadStatus is the server's response to a Push.
type UploadStatus struct {
	ResponseMessage string
	Code            int
}

// Client is implemented by a concrete transport (e.g. a gRPC stub) that
// speaks to a Flux synchronisation server. The local engine only ever sees
// this interface.
type Client interface {
	// Auth exchanges user credentials for a bearer access token.
	Auth(ctx context.Context, creds Credentials) (accessToken string, err error)

	// Push streams a tar+gzip archive of a repository's .flux directory to
	// the server under repoName, authenticated with accessToken.
	Push(ctx context.Context, repoName string, archive io.Reader, creds Credentials, accessToken string) (UploadStatus, error)

	// Clone retrieves the stored archive for "<user>/<repo>" named by name.
	Clone(ctx context.Context, name string) (io.ReadCloser, error)
}
