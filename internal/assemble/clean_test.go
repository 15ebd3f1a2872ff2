package assemble

import "testing"

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{
			"table rows and cells",
			"<table><tr><td>VALVE</td><td>2\"</td></tr><tr><td>PIPE</td><td>6\"</td></tr></table>",
			"VALVE | 2\" |\nPIPE | 6\" |",
		},
		{
			"xml comments removed",
			"before <!-- layout\nmetadata --> after",
			"before after",
		},
		{
			"paragraph and break tags become line breaks",
			"<p>line one</p><br/>line two <div>line three</div>",
			"line one\n\nline two line three",
		},
		{
			"original newlines collapse inside cells",
			"<td>multi\nline\ncell</td>done",
			"multi line cell | done",
		},
		{
			"cad artifacts",
			"AutoCAD SHX Text %%C150 PIPE",
			"Ø150 PIPE",
		},
		{
			"whitespace collapsed",
			"a   \t  b",
			"a b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanContent(tt.in); got != tt.want {
				t.Errorf("CleanContent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"under budget", "short", 10, "short"},
		{"exactly at budget", "12345", 5, "12345"},
		{"over budget", "1234567890", 5, "12345..."},
		{"multibyte counts runes not bytes", "도면목록표지", 3, "도면목..."},
		{"zero disables", "anything", 0, "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
