// Package options_test tests command-line token resolution.
package options_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/book-expert/sinsy-service/internal/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PlaybackDefaults(t *testing.T) {
	t.Parallel()

	opts, err := options.Resolve([]string{"-m", "voice.htsvoice", "score.xml"})
	require.NoError(t, err)

	assert.Equal(t, "score.xml", opts.ScoreFile)
	assert.Equal(t, "voice.htsvoice", opts.VoiceModel)
	assert.Equal(t, []string{"j"}, opts.Languages)
	assert.Equal(t, options.DefaultDictionaryDir, opts.DictionaryDir)
	assert.Equal(t, options.LabelDisabled, opts.LabelMode)
	assert.Empty(t, opts.StartTime)
	assert.True(t, opts.PlaybackMode())
	assert.Equal(t, []string{"voice.htsvoice"}, opts.VoiceModels())
}

func TestResolve_SaveModeWithTimedLabel(t *testing.T) {
	t.Parallel()

	opts, err := options.Resolve([]string{"-m", "voice.htsvoice", "-o", "out.wav", "-l", "t", "score.xml"})
	require.NoError(t, err)

	assert.False(t, opts.PlaybackMode())
	assert.Equal(t, "out.wav", opts.OutputAudioPath)
	assert.Equal(t, options.LabelTimed, opts.LabelMode)
}

func TestResolve_AllFlags(t *testing.T) {
	t.Parallel()

	opts, err := options.Resolve([]string{
		"score.xml", "-w", "jc", "-x", "/opt/dic", "-m", "v.htsvoice", "-s", "12.5", "-l", "mono",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"j", "c"}, opts.Languages)
	assert.Equal(t, "jc", opts.LanguageCodes())
	assert.Equal(t, "/opt/dic", opts.DictionaryDir)
	assert.Equal(t, "12.5", opts.StartTime)
	assert.Equal(t, options.LabelMono, opts.LabelMode)
}

func TestResolve_LabelModeMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  options.LabelMode
	}{
		{value: "d", want: options.LabelDisabled},
		{value: "n", want: options.LabelNormal},
		{value: "t", want: options.LabelTimed},
		{value: "m", want: options.LabelMono},
		{value: "x", want: options.LabelDisabled},
		{value: "T", want: options.LabelDisabled},
		{value: "", want: options.LabelDisabled},
		{value: "-z", want: options.LabelDisabled},
	}

	for _, testCase := range tests {
		t.Run("label "+testCase.value, func(t *testing.T) {
			t.Parallel()

			opts, err := options.Resolve([]string{"-m", "v.htsvoice", "-l", testCase.value, "score.xml"})
			require.NoError(t, err)
			assert.Equal(t, testCase.want, opts.LabelMode)
		})
	}
}

func TestResolve_MissingRequiredField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tokens []string
	}{
		{name: "no score file", tokens: []string{"-m", "voice.htsvoice"}},
		{name: "no voice model", tokens: []string{"score.xml"}},
		{name: "only options", tokens: []string{"-w", "j", "-o", "out.wav"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			opts, err := options.Resolve(testCase.tokens)
			require.ErrorIs(t, err, options.ErrMissingRequiredField)
			assert.NotErrorIs(t, err, options.ErrUsage)
			assert.Nil(t, opts)
		})
	}
}

func TestResolve_UsageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tokens  []string
		wantErr error
	}{
		{name: "no arguments", tokens: nil, wantErr: options.ErrNoArguments},
		{name: "unknown option", tokens: []string{"-z", "foo", "score.xml", "-m", "v.htsvoice"}, wantErr: options.ErrUnknownOption},
		{name: "bare marker", tokens: []string{"-", "score.xml"}, wantErr: options.ErrUnknownOption},
		{name: "second positional", tokens: []string{"a.xml", "b.xml"}, wantErr: options.ErrDuplicatePositional},
		{name: "trailing flag", tokens: []string{"score.xml", "-m"}, wantErr: options.ErrMissingFlagValue},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := options.Resolve(testCase.tokens)
			require.ErrorIs(t, err, testCase.wantErr)
			require.ErrorIs(t, err, options.ErrUsage)
		})
	}
}

func TestResolve_UnknownOptionNamesToken(t *testing.T) {
	t.Parallel()

	_, err := options.Resolve([]string{"-z", "foo", "score.xml", "-m", "v.htsvoice"})
	require.Error(t, err)
	assert.Equal(t, "invalid option : '-z'", err.Error())
}

func TestResolve_HelpFirstEncounteredWins(t *testing.T) {
	t.Parallel()

	_, err := options.Resolve([]string{"-h", "-z"})
	require.ErrorIs(t, err, options.ErrHelpRequested)

	_, err = options.Resolve([]string{"-w", "j", "-help"})
	require.ErrorIs(t, err, options.ErrHelpRequested)

	_, err = options.Resolve([]string{"-z", "-h"})
	require.ErrorIs(t, err, options.ErrUnknownOption)
}

func TestResolve_FlagValueMayLookLikeFlag(t *testing.T) {
	t.Parallel()

	opts, err := options.Resolve([]string{"-m", "-h", "score.xml"})
	require.NoError(t, err)
	assert.Equal(t, "-h", opts.VoiceModel)
}

func TestResolve_FlagSelectedBySecondCharacter(t *testing.T) {
	t.Parallel()

	opts, err := options.Resolve([]string{"-model", "v.htsvoice", "-output", "out.wav", "score.xml"})
	require.NoError(t, err)
	assert.Equal(t, "v.htsvoice", opts.VoiceModel)
	assert.Equal(t, "out.wav", opts.OutputAudioPath)
}

func TestResolve_EmptyLanguagesKeepDefault(t *testing.T) {
	t.Parallel()

	opts, err := options.Resolve([]string{"-w", "", "-m", "v.htsvoice", "score.xml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"j"}, opts.Languages)
}

func TestResolveWithDefaults(t *testing.T) {
	t.Parallel()

	defaults := options.Defaults{Languages: "c", DictionaryDir: "/srv/dic"}

	opts, err := options.ResolveWithDefaults([]string{"-m", "v.htsvoice", "score.xml"}, defaults)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, opts.Languages)
	assert.Equal(t, "/srv/dic", opts.DictionaryDir)

	opts, err = options.ResolveWithDefaults([]string{"-m", "v.htsvoice", "score.xml"}, options.Defaults{})
	require.NoError(t, err)
	assert.Equal(t, []string{"j"}, opts.Languages)
}

func TestUsage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	options.Usage(&buf)

	assert.Contains(t, buf.String(), "sinsy [ options ] [ infile ]")
	assert.Contains(t, buf.String(), "[/usr/local/dic]")
	assert.Contains(t, buf.String(), "[  j]")
}

func TestUsage_OptionsTableLayout(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	options.UsageWithDefaults(&buf, options.Defaults{Languages: "j", DictionaryDir: "/usr/local/dic"})

	expected := strings.Join([]string{
		"  usage:",
		"    sinsy [ options ] [ infile ]",
		"  options:                                           [def]",
		"    -w langs    : languages                          [  j]",
		"                  j: Japanese                             ",
		"                  c: Chinese                              ",
		"    -x dir      : dictionary directory               [/usr/local/dic]",
		"    -m htsvoice : HTS voice file                     [N/A]",
		"    -o file     : filename of output wav audio       [N/A]",
		"    -s time     : play start time                    [0.0]",
		"    -l mode     : output label                       [  d]",
		"                  d: Disable                              ",
		"                  n: Normal                               ",
		"                  t: Label with time                      ",
		"                  m: Mono label                           ",
		"  infile:",
		"    MusicXML file",
		"",
	}, "\n")

	_, table, found := strings.Cut(buf.String(), "\n\n")
	require.True(t, found, "banner is followed by a blank line")
	assert.Equal(t, expected, table)
}

func TestLabelMode_Flag(t *testing.T) {
	t.Parallel()

	for _, mode := range []options.LabelMode{
		options.LabelDisabled, options.LabelNormal, options.LabelTimed, options.LabelMono,
	} {
		assert.Equal(t, mode, options.ParseLabelMode(mode.Flag()))
	}
}
