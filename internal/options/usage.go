package options

import (
	"fmt"
	"io"
	"strings"
)

const usageBanner = `The HMM-Based Singing Voice Synthesis orchestrator "sinsy"`

// usageTable mirrors the reference renderer's table line for line, including the
// trailing padding of the value lines.
var usageTable = []string{
	"  usage:",
	"    sinsy [ options ] [ infile ]",
	"  options:                                           [def]",
	"    -w langs    : languages                          [%3s]",
	"                  j: Japanese                             ",
	"                  c: Chinese                              ",
	"    -x dir      : dictionary directory               [%s]",
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
}

var usageFormat = usageBanner + "\n\n" + strings.Join(usageTable, "\n") + "\n"

// Usage writes the usage text with the built-in defaults.
func Usage(w io.Writer) {
	UsageWithDefaults(w, DefaultSettings())
}

// UsageWithDefaults writes the usage text showing the given defaults.
func UsageWithDefaults(w io.Writer, defaults Defaults) {
	_, _ = fmt.Fprintf(w, usageFormat, defaults.Languages, defaults.DictionaryDir)
}
