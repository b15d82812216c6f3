package http

import (
	"context"
	"io"
	"time"
)

//go:generate mockgen -destination=mocks/http.go -package=mocks . IClient
type IClient interface {
	// DoHTTPRequest sends the request and decodes a JSON response into requestParam.Response.
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
	// DoStreamRequest sends the request and hands back the open response body.
	// The caller must close it.
	DoStreamRequest(ctx context.Context, requestParam *RequestParam) (io.ReadCloser, error)
}

type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Query      map[string]string
	Body       interface{}
	Response   interface{}

	Timeout time.Duration
}
