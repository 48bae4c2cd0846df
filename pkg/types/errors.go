// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// DecodeError reports a malformed input document or page. It is fatal for
// the affected document; batch mode isolates it to that document.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RemoteError reports a vision-model failure: unreachable endpoint, model
// error, or timeout. Fatal in single-document mode; recorded per page or
// per document in batch mode. Caption failures are degraded to a fallback
// string before ever becoming a RemoteError.
type RemoteError struct {
	Op  string // "transcribe" or "caption"
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("vision %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
