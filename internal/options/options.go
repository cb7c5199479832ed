// Package options resolves sinsy command-line tokens into a validated configuration.
package options

import (
	"errors"
	"fmt"
	"strings"
)

// Built-in defaults used when no configuration overrides them.
const (
	DefaultLanguages     = "j"
	DefaultDictionaryDir = "/usr/local/dic"
)

const optionMarker = '-'

// Flag characters recognized after the option marker.
const (
	flagLanguages  = 'w'
	flagDictionary = 'x'
	flagVoice      = 'm'
	flagOutput     = 'o'
	flagStartTime  = 's'
	flagLabel      = 'l'
	flagHelp       = 'h'
)

var (
	// ErrUsage is the parent of every malformed-invocation error.
	ErrUsage = errors.New("usage error")
	// ErrNoArguments is returned when no tokens were given at all.
	ErrNoArguments = errors.New("no arguments given")
	// ErrDuplicatePositional is returned for a second score file token.
	ErrDuplicatePositional = errors.New("unexpected extra score file")
	// ErrUnknownOption is returned for an unrecognized flag character.
	ErrUnknownOption = errors.New("invalid option")
	// ErrMissingFlagValue is returned when a flag is the last token.
	ErrMissingFlagValue = errors.New("missing value for option")
	// ErrMissingRequiredField is returned when the score file or voice model is absent.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrHelpRequested signals that usage should be shown and the process should succeed.
	ErrHelpRequested = errors.New("help requested")
)

// Defaults holds the values used for optional fields that were not given on the command line.
type Defaults struct {
	Languages     string
	DictionaryDir string
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Defaults {
	return Defaults{
		Languages:     DefaultLanguages,
		DictionaryDir: DefaultDictionaryDir,
	}
}

// Options is the resolved configuration of one synthesis run. It is not modified after Resolve.
type Options struct {
	ScoreFile       string
	VoiceModel      string
	DictionaryDir   string
	Languages       []string
	OutputAudioPath string
	StartTime       string
	LabelMode       LabelMode
}

// PlaybackMode reports whether audio is played instead of written to a file.
func (o *Options) PlaybackMode() bool {
	return o.OutputAudioPath == ""
}

// VoiceModels returns the voice model paths in load order.
func (o *Options) VoiceModels() []string {
	return []string{o.VoiceModel}
}

// LanguageCodes returns the languages joined the way the -w flag takes them.
func (o *Options) LanguageCodes() string {
	return strings.Join(o.Languages, "")
}

// Resolve resolves tokens with the built-in defaults.
func Resolve(tokens []string) (*Options, error) {
	return ResolveWithDefaults(tokens, DefaultSettings())
}

// ResolveWithDefaults scans tokens left to right and builds Options.
// The first help flag or error encountered wins.
func ResolveWithDefaults(tokens []string, defaults Defaults) (*Options, error) {
	if len(tokens) == 0 {
		return nil, newUsageError(ErrNoArguments, "")
	}

	opts := &Options{
		DictionaryDir: defaults.DictionaryDir,
		Languages:     splitLanguages(defaults.Languages),
		LabelMode:     LabelDisabled,
	}
	if len(opts.Languages) == 0 {
		opts.Languages = splitLanguages(DefaultLanguages)
	}

	for index := 0; index < len(tokens); index++ {
		token := tokens[index]

		if token == "" || token[0] != optionMarker {
			if opts.ScoreFile != "" {
				return nil, newUsageError(ErrDuplicatePositional, token)
			}

			opts.ScoreFile = token

			continue
		}

		var flagChar byte
		if len(token) > 1 {
			flagChar = token[1]
		}

		if flagChar == flagHelp {
			return nil, ErrHelpRequested
		}

		if !isValueFlag(flagChar) {
			return nil, newUsageError(ErrUnknownOption, token)
		}

		if index+1 >= len(tokens) {
			return nil, newUsageError(ErrMissingFlagValue, token)
		}

		index++
		applyFlag(opts, flagChar, tokens[index])
	}

	if opts.ScoreFile == "" {
		return nil, fmt.Errorf("%w: score file", ErrMissingRequiredField)
	}

	if opts.VoiceModel == "" {
		return nil, fmt.Errorf("%w: voice model (-m)", ErrMissingRequiredField)
	}

	return opts, nil
}

// usageError reports a malformed invocation. It matches both its cause and ErrUsage.
type usageError struct {
	cause error
	token string
}

func newUsageError(cause error, token string) error {
	return &usageError{cause: cause, token: token}
}

func (e *usageError) Error() string {
	if e.token == "" {
		return e.cause.Error()
	}

	return fmt.Sprintf("%s : '%s'", e.cause.Error(), e.token)
}

func (e *usageError) Unwrap() []error {
	return []error{e.cause, ErrUsage}
}

func isValueFlag(flagChar byte) bool {
	switch flagChar {
	case flagLanguages, flagDictionary, flagVoice, flagOutput, flagStartTime, flagLabel:
		return true
	default:
		return false
	}
}

func applyFlag(opts *Options, flagChar byte, value string) {
	switch flagChar {
	case flagLanguages:
		// An empty -w keeps the current languages so the list is never empty.
		if languages := splitLanguages(value); len(languages) > 0 {
			opts.Languages = languages
		}
	case flagDictionary:
		opts.DictionaryDir = value
	case flagVoice:
		opts.VoiceModel = value
	case flagOutput:
		opts.OutputAudioPath = value
	case flagStartTime:
		opts.StartTime = value
	case flagLabel:
		opts.LabelMode = ParseLabelMode(value)
	}
}

// splitLanguages turns a -w value such as "jc" into one code per character.
func splitLanguages(value string) []string {
	languages := make([]string, 0, len(value))
	for _, code := range value {
		languages = append(languages, string(code))
	}

	return languages
}
