package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/themecheck/internal/model"
)

// Input formats accepted by DecodeInput
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// LoadInput reads a destination input from a .json, .yaml or .yml file
func LoadInput(path string) (model.DestinationInput, error) {
	format, err := formatFromPath(path)
	if err != nil {
		return model.DestinationInput{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return model.DestinationInput{}, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	input, err := DecodeInput(f, format)
	if err != nil {
		return model.DestinationInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return input, nil
}

// DecodeInput decodes a destination input in the given format
func DecodeInput(r io.Reader, format string) (model.DestinationInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.DestinationInput{}, fmt.Errorf("read input: %w", err)
	}

	var input model.DestinationInput
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &input)
	case FormatYAML:
		err = yaml.NewDecoder(bytes.NewReader(data)).Decode(&input)
		if err == io.EOF {
			err = fmt.Errorf("empty document")
		}
	default:
		return model.DestinationInput{}, model.WrapError(model.ErrInvalidInput, "decode input",
			fmt.Errorf("unsupported format %q", format))
	}
	if err != nil {
		return model.DestinationInput{}, model.WrapError(model.ErrInvalidInput, "decode input", err)
	}

	if strings.TrimSpace(input.Name) == "" {
		return model.DestinationInput{}, model.WrapError(model.ErrInvalidInput, "decode input",
			fmt.Errorf("missing destination_name"))
	}

	return input, nil
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", model.WrapError(model.ErrInvalidInput, "load input",
			fmt.Errorf("unsupported input extension %q (want .json, .yaml or .yml)", filepath.Ext(path)))
	}
}
