package parsers

import (
	"strconv"
	"strings"

	apperrors "github.com/aimat-lab/xrdpattern-sub000/internal/pkg/errors"
)

// cifDocument is the subset of CIF the decoder needs: data blocks holding
// single items and loops. Tags are stored lowercase with dots folded to
// underscores, so CIF2 style names resolve to the same key.
type cifDocument struct {
	blocks []*cifBlock
}

type cifBlock struct {
	name  string
	items map[string]string
	loops map[string]*cifLoop
}

// cifLoop is one table; values holds one slice per column
type cifLoop struct {
	tags    []string
	columns map[string]int
	values  [][]string
}

func newCIFBlock(name string) *cifBlock {
	return &cifBlock{
		name:  name,
		items: make(map[string]string),
		loops: make(map[string]*cifLoop),
	}
}

// value returns a single item, or the first loop entry for the tag
func (b *cifBlock) value(tag string) (string, bool) {
	if v, ok := b.items[tag]; ok {
		return v, true
	}
	if col, ok := b.column(tag); ok && len(col) > 0 {
		return col[0], true
	}
	return "", false
}

// column returns the loop column for the tag
func (b *cifBlock) column(tag string) ([]string, bool) {
	lp, ok := b.loops[tag]
	if !ok {
		return nil, false
	}
	return lp.values[lp.columns[tag]], true
}

// firstColumn returns the first tag in priority order that has a column
func (b *cifBlock) firstColumn(tags []string) (string, []string, bool) {
	for _, tag := range tags {
		if col, ok := b.column(tag); ok {
			return tag, col, true
		}
	}
	return "", nil, false
}

type cifToken struct {
	text   string
	quoted bool
}

func (t cifToken) isTag() bool {
	return !t.quoted && strings.HasPrefix(t.text, "_")
}

func (t cifToken) keyword() string {
	if t.quoted {
		return ""
	}
	lower := strings.ToLower(t.text)
	switch {
	case strings.HasPrefix(lower, "data_"):
		return "data_"
	case lower == "loop_":
		return "loop_"
	case strings.HasPrefix(lower, "save_"):
		return "save_"
	case lower == "global_", lower == "stop_":
		return lower
	}
	return ""
}

// tokenizeCIF splits a document into tokens, handling comments, quoted
// strings and semicolon text fields
func tokenizeCIF(text string) ([]cifToken, error) {
	var tokens []cifToken
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.HasPrefix(line, ";") {
			var field strings.Builder
			field.WriteString(strings.TrimRight(line[1:], " \t"))
			closed := false
			for i++; i < len(lines); i++ {
				if strings.HasPrefix(lines[i], ";") {
					closed = true
					break
				}
				field.WriteString("\n")
				field.WriteString(lines[i])
			}
			if !closed {
				return nil, apperrors.FileParseError(nil, "unterminated CIF text field")
			}
			tokens = append(tokens, cifToken{text: strings.TrimSpace(field.String()), quoted: true})
			continue
		}

		for pos := 0; pos < len(line); {
			c := line[pos]
			switch {
			case c == ' ' || c == '\t':
				pos++
			case c == '#':
				pos = len(line)
			case c == '\'' || c == '"':
				end := closingQuote(line, pos+1, c)
				if end < 0 {
					return nil, apperrors.FileParseError(nil, "unterminated CIF quoted string").
						WithDetails("line", i+1)
				}
				tokens = append(tokens, cifToken{text: line[pos+1 : end], quoted: true})
				pos = end + 1
			default:
				end := pos
				for end < len(line) && line[end] != ' ' && line[end] != '\t' {
					end++
				}
				tokens = append(tokens, cifToken{text: line[pos:end]})
				pos = end
			}
		}
	}

	return tokens, nil
}

// closingQuote finds a quote character followed by whitespace or end of line
func closingQuote(line string, from int, quote byte) int {
	for i := from; i < len(line); i++ {
		if line[i] != quote {
			continue
		}
		if i+1 == len(line) || line[i+1] == ' ' || line[i+1] == '\t' {
			return i
		}
	}
	return -1
}

func normalizeTag(tag string) string {
	return strings.ReplaceAll(strings.ToLower(tag), ".", "_")
}

// parseCIF builds a document from text. Save frames are skipped.
func parseCIF(text string) (*cifDocument, error) {
	tokens, err := tokenizeCIF(text)
	if err != nil {
		return nil, err
	}

	doc := &cifDocument{}
	var block *cifBlock
	inSave := false

	ensureBlock := func() *cifBlock {
		if block == nil {
			block = newCIFBlock("")
			doc.blocks = append(doc.blocks, block)
		}
		return block
	}

	for i := 0; i < len(tokens); {
		tok := tokens[i]

		switch tok.keyword() {
		case "data_":
			block = newCIFBlock(tok.text[len("data_"):])
			doc.blocks = append(doc.blocks, block)
			inSave = false
			i++
			continue
		case "save_":
			inSave = len(tok.text) > len("save_")
			i++
			continue
		case "global_", "stop_":
			i++
			continue
		case "loop_":
			lp, next := parseLoop(tokens, i+1)
			if !inSave && len(lp.tags) > 0 {
				b := ensureBlock()
				for _, tag := range lp.tags {
					b.loops[tag] = lp
				}
			}
			i = next
			continue
		}

		if tok.isTag() {
			if i+1 >= len(tokens) || tokens[i+1].isTag() || tokens[i+1].keyword() != "" {
				return nil, apperrors.FileParseError(nil, "CIF tag without value").
					WithDetails("tag", tok.text)
			}
			if !inSave {
				ensureBlock().items[normalizeTag(tok.text)] = tokens[i+1].text
			}
			i += 2
			continue
		}

		// Stray value outside any tag; tolerated.
		i++
	}

	return doc, nil
}

// parseLoop reads loop tags then values, filling columns round-robin. It
// returns the index of the first token after the loop.
func parseLoop(tokens []cifToken, i int) (*cifLoop, int) {
	lp := &cifLoop{columns: make(map[string]int)}

	for i < len(tokens) && tokens[i].isTag() {
		tag := normalizeTag(tokens[i].text)
		lp.columns[tag] = len(lp.tags)
		lp.tags = append(lp.tags, tag)
		i++
	}
	lp.values = make([][]string, len(lp.tags))
	if len(lp.tags) == 0 {
		return lp, i
	}

	n := 0
	for i < len(tokens) && !tokens[i].isTag() && tokens[i].keyword() == "" {
		col := n % len(lp.tags)
		lp.values[col] = append(lp.values[col], tokens[i].text)
		n++
		i++
	}

	// Drop a trailing partial row so every column has equal length.
	rows := n / len(lp.tags)
	for c := range lp.values {
		if len(lp.values[c]) > rows {
			lp.values[c] = lp.values[c][:rows]
		}
	}

	return lp, i
}

// parseCIFNumber reads a CIF numeric value, dropping a standard uncertainty
// suffix such as "1.234(5)". "?" and "." mean unknown.
func parseCIFNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "?" || s == "." {
		return 0, false
	}
	if idx := strings.IndexByte(s, '('); idx >= 0 {
		s = s[:idx]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
