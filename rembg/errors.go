package rembg

import "errors"

var (
	// ErrFileNotFound is returned by Upload before any request is sent.
	ErrFileNotFound = errors.New("File not found")

	ErrMalformedUpload = errors.New("malformed upload response")

	// ErrNoResultURL means the job completed but its output carried no file URL.
	ErrNoResultURL = errors.New("No final image URL found.")

	// ErrStreamEnded means the remote closed the event stream before the job completed.
	ErrStreamEnded = errors.New("Stream ended without result.")
)
