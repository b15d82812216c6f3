package rembg

import "encoding/json"

const (
	fileDataType = "gradio.FileData"
	jpegMimeType = "image/jpeg"

	MsgProcessCompleted = "process_completed"
)

// FileData 描述已上传到远端的文件，作为任务的输入
type FileData struct {
	Path     string   `json:"path"`
	URL      string   `json:"url"`
	OrigName string   `json:"orig_name"`
	Size     int64    `json:"size"`
	MimeType string   `json:"mime_type"`
	Meta     FileMeta `json:"meta"`
}

type FileMeta struct {
	Type string `json:"_type"`
}

// JobSession is the queue join payload. SessionHash ties the submission to the
// event stream opened right after it.
type JobSession struct {
	Data        []*FileData `json:"data"`
	EventData   any         `json:"event_data"`
	FnIndex     int         `json:"fn_index"`
	TriggerID   int         `json:"trigger_id"`
	SessionHash string      `json:"session_hash"`
}

// Event is one "data:" line of the queue event stream.
type Event struct {
	// EventID 通常是字符串，但不做类型约束
	EventID json.RawMessage `json:"event_id"`
	Msg     string          `json:"msg"`
	Output  json.RawMessage `json:"output,omitempty"`
}

func (e *Event) ID() string {
	var id string
	if err := json.Unmarshal(e.EventID, &id); err == nil {
		return id
	}
	return string(e.EventID)
}

// ResultURL returns output.data[0].url, if the event carries one.
func (e *Event) ResultURL() (string, bool) {
	if len(e.Output) == 0 {
		return "", false
	}

	var output struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(e.Output, &output); err != nil || len(output.Data) == 0 {
		return "", false
	}

	var file struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(output.Data[0], &file); err != nil || file.URL == "" {
		return "", false
	}
	return file.URL, true
}
