package extract

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/ausocean/utils/logging"
)

// ExternalToolError is returned when the sample decoder is missing or
// fails.
type ExternalToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (err *ExternalToolError) Error() string {
	var msg = fmt.Sprintf("%s: %v", err.Tool, err.Err)

	if len(err.Args) != 0 {
		msg = fmt.Sprintf("%s %s: %v", err.Tool, strings.Join(err.Args, " "), err.Err)
	}

	if err.Output != "" {
		msg = msg + "\n" + err.Output
	}

	return msg
}

func (err *ExternalToolError) Unwrap() error {
	return err.Err
}

// Decoder turns an extracted AIFC file into a WAV file.
type Decoder interface {
	// Check is called once before any sample is decoded.
	Check() error
	Decode(aifcPath string, wavPath string) error
}

// ToolDecoder runs z64sample in matching mode.
type ToolDecoder struct {
	Path string
	Log  logging.Logger

	resolved string
}

func NewToolDecoder(path string, log logging.Logger) *ToolDecoder {
	return &ToolDecoder{Path: path, Log: log}
}

func (decoder *ToolDecoder) Check() error {
	path, err := exec.LookPath(decoder.Path)

	if err != nil {
		return &ExternalToolError{Tool: decoder.Path, Err: err}
	}

	decoder.Log.Debug(fmt.Sprintf("found %s", decoder.Path), "path", path)
	decoder.resolved = path

	return nil
}

func (decoder *ToolDecoder) Decode(aifcPath string, wavPath string) error {
	if decoder.resolved == "" {
		err := decoder.Check()

		if err != nil {
			return err
		}
	}

	var args = []string{"--matching", aifcPath, wavPath}

	output, err := exec.Command(decoder.resolved, args...).CombinedOutput()

	if err != nil {
		return &ExternalToolError{Tool: decoder.Path, Args: args, Output: string(output), Err: err}
	}

	return nil
}
