package rembg

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

const (
	dataPrefix   = "data:"
	maxEventSize = 8 << 20
)

// waitForCompletion reads the event stream until a process_completed event arrives.
// Lines without the data: prefix and lines that are not valid JSON are skipped.
// onEvent, if set, sees every decoded event.
func waitForCompletion(r io.Reader, onEvent func(*Event)) (*Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte(dataPrefix)) {
			continue
		}

		var ev Event
		if err := json.Unmarshal(bytes.TrimSpace(line[len(dataPrefix):]), &ev); err != nil {
			continue
		}
		if onEvent != nil {
			onEvent(&ev)
		}
		if ev.Msg == MsgProcessCompleted {
			return &ev, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, ErrStreamEnded
}
