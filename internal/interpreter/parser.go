package interpreter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Parser turns raw model text into a ParsedResponse
type Parser struct {
	unwrappers []Unwrapper
	logger     *zap.Logger
}

// NewParser creates a parser. Without unwrappers it uses DefaultUnwrappers.
func NewParser(logger *zap.Logger, unwrappers ...Unwrapper) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(unwrappers) == 0 {
		unwrappers = DefaultUnwrappers
	}
	return &Parser{
		unwrappers: unwrappers,
		logger:     logger,
	}
}

var defaultParser = NewParser(nil)

// Parse parses raw with the default parser
func Parse(raw string) ParsedResponse {
	return defaultParser.Parse(raw)
}

// Parse never fails: text that is not a usable JSON object yields a response with no
// commands and Error set to ParseFailureMessage.
func (p *Parser) Parse(raw string) ParsedResponse {
	text := raw
	for _, unwrap := range p.unwrappers {
		text = unwrap(text)
	}
	text = strings.TrimSpace(text)

	resp, err := decode([]byte(text))
	if err != nil {
		p.logger.Debug("failed to parse model response",
			zap.Error(err),
			zap.String("raw", raw),
		)
		return failed()
	}

	return resp
}

func decode(data []byte) (ParsedResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ParsedResponse{}, err
	}
	if fields == nil {
		return ParsedResponse{}, errors.New("top level is not an object")
	}

	commands, err := decodeCommands(fields["commands"])
	if err != nil {
		return ParsedResponse{}, fmt.Errorf("commands: %w", err)
	}

	explanation, err := decodeOptionalString(fields["explanation"])
	if err != nil {
		return ParsedResponse{}, fmt.Errorf("explanation: %w", err)
	}

	caution, err := decodeOptionalString(fields["caution"])
	if err != nil {
		return ParsedResponse{}, fmt.Errorf("caution: %w", err)
	}

	modelErr, err := decodeOptionalString(fields["error"])
	if err != nil {
		return ParsedResponse{}, fmt.Errorf("error: %w", err)
	}

	resp := ParsedResponse{
		Commands: commands,
		Caution:  caution,
		Error:    modelErr,
	}
	if explanation != nil {
		resp.Explanation = *explanation
	}
	return resp, nil
}

// decodeCommands accepts an array of strings or a single string. Blank entries are dropped.
func decodeCommands(raw json.RawMessage) ([]string, error) {
	commands := []string{}
	if isNull(raw) {
		return commands, nil
	}

	var list []string
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		list = []string{single}
	} else if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}

	for _, cmd := range list {
		if strings.TrimSpace(cmd) != "" {
			commands = append(commands, cmd)
		}
	}
	return commands, nil
}

func decodeOptionalString(raw json.RawMessage) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
