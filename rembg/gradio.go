package rembg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaos-io/rmbg/util"
	nhttp "github.com/chaos-io/rmbg/util/http"
)

const (
	DefaultBaseURL   = "https://ecshreve-bg-remover.hf.space"
	DefaultTriggerID = 10
	DefaultFnIndex   = 0
)

// GradioRemBG 通过 Gradio 应用的上传 + 队列接口去除背景
type GradioRemBG struct {
	baseURL     string
	triggerID   int
	fnIndex     int
	pollTimeout time.Duration
	cli         nhttp.IClient
	logger      *slog.Logger
}

type Option func(*GradioRemBG)

func WithBaseURL(baseURL string) Option {
	return func(g *GradioRemBG) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithTriggerID(id int) Option {
	return func(g *GradioRemBG) {
		g.triggerID = id
	}
}

func WithFnIndex(idx int) Option {
	return func(g *GradioRemBG) {
		g.fnIndex = idx
	}
}

// WithPollTimeout bounds how long the event stream is read. Zero waits forever.
func WithPollTimeout(d time.Duration) Option {
	return func(g *GradioRemBG) {
		g.pollTimeout = d
	}
}

func WithClient(cli nhttp.IClient) Option {
	return func(g *GradioRemBG) {
		g.cli = cli
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *GradioRemBG) {
		g.logger = logger
	}
}

func NewGradioRemBG(opts ...Option) *GradioRemBG {
	g := &GradioRemBG{
		baseURL:   DefaultBaseURL,
		triggerID: DefaultTriggerID,
		fnIndex:   DefaultFnIndex,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cli == nil {
		g.cli = nhttp.NewHTTPClient()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Remove uploads the image and waits for the processed result.
func (g *GradioRemBG) Remove(ctx context.Context, imagePath string) (string, error) {
	defer util.Trace("remove background", slog.String("image", imagePath))()

	file, err := g.Upload(ctx, imagePath)
	if err != nil {
		return "", err
	}
	return g.Process(ctx, file)
}

/*
	curl -X POST "$BASE_URL/upload?upload_id=abc123def45" \
	  -H "Origin: $BASE_URL" \
	  -F "files=@my_image.jpg"

["/tmp/gradio/6f1c.../my_image.jpg"]
*/
func (g *GradioRemBG) Upload(ctx context.Context, imagePath string) (*FileData, error) {
	fullPath, err := filepath.Abs(imagePath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at: %s", ErrFileNotFound, fullPath)
	}
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", filepath.Base(fullPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var paths []string
	reqParam := &nhttp.RequestParam{
		RequestURI: g.baseURL + "/upload",
		Method:     http.MethodPost,
		Query:      map[string]string{"upload_id": util.RandomID(util.DefaultIDLength)},
		Header: map[string]string{
			"Content-Type": writer.FormDataContentType(),
			"Origin":       g.baseURL,
		},
		Body:     body,
		Response: &paths,
	}
	if err := g.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if len(paths) == 0 || paths[0] == "" {
		return nil, ErrMalformedUpload
	}

	g.logger.Debug("uploaded image", slog.String("path", paths[0]), slog.Int64("size", info.Size()))

	return &FileData{
		Path:     paths[0],
		URL:      g.baseURL + "/file=" + paths[0],
		OrigName: filepath.Base(fullPath),
		Size:     info.Size(),
		MimeType: jpegMimeType,
		Meta:     FileMeta{Type: fileDataType},
	}, nil
}

// Process submits a job for file and blocks until the queue reports it completed.
func (g *GradioRemBG) Process(ctx context.Context, file *FileData) (string, error) {
	sess := &JobSession{
		Data:        []*FileData{file},
		FnIndex:     g.fnIndex,
		TriggerID:   g.triggerID,
		SessionHash: util.RandomID(util.DefaultIDLength),
	}

	if err := g.join(ctx, sess); err != nil {
		return "", err
	}
	return g.poll(ctx, sess.SessionHash)
}

/*
	curl -X POST "$BASE_URL/queue/join" \
	  -H "Content-Type: application/json" \
	  -d '{"data":[{...}],"event_data":null,"fn_index":0,"trigger_id":10,"session_hash":"..."}'
*/
func (g *GradioRemBG) join(ctx context.Context, sess *JobSession) error {
	reqParam := &nhttp.RequestParam{
		RequestURI: g.baseURL + "/queue/join",
		Method:     http.MethodPost,
		Header:     map[string]string{"Origin": g.baseURL},
		Body:       sess,
	}
	if err := g.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return fmt.Errorf("join queue: %w", err)
	}
	return nil
}

func (g *GradioRemBG) poll(ctx context.Context, sessionHash string) (string, error) {
	body, err := g.cli.DoStreamRequest(ctx, &nhttp.RequestParam{
		RequestURI: g.baseURL + "/queue/data",
		Method:     http.MethodGet,
		Query:      map[string]string{"session_hash": sessionHash},
		Header: map[string]string{
			"Accept": "text/event-stream",
			"Origin": g.baseURL,
		},
		Timeout: g.pollTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("open event stream: %w", err)
	}

	seen := make(map[string]struct{})
	ev, err := waitForCompletion(body, func(ev *Event) {
		id := ev.ID()
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		g.logger.Debug("queue event", slog.String("session_hash", sessionHash),
			slog.String("event_id", id), slog.String("msg", ev.Msg))
	})
	// 拿到结果后立即断开，不再读取后续事件
	_ = body.Close()

	if errors.Is(err, ErrStreamEnded) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("read event stream: %w", err)
	}

	url, ok := ev.ResultURL()
	if !ok {
		return "", ErrNoResultURL
	}
	return url, nil
}
