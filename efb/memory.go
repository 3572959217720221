package efb

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/efbutils/ufmsim/protocol"
)

// Page is one 16-byte page of the UFM.
type Page [protocol.PageSize]byte

// Memory is the UFM array.
type Memory struct {
	pages []Page
}

// NewMemory creates an erased (all zero) array of numPages pages.
func NewMemory(numPages int) *Memory {
	return &Memory{pages: make([]Page, numPages)}
}

// NumPages returns the number of pages of the array.
func (m *Memory) NumPages() int {
	return len(m.pages)
}

// Page returns the content of page i.
func (m *Memory) Page(i int) (Page, bool) {
	if i < 0 || i >= len(m.pages) {
		return Page{}, false
	}

	return m.pages[i], true
}

// Load copies pages into the array starting at page start.
func (m *Memory) Load(start int, pages []Page) error {
	if start < 0 || start+len(pages) > len(m.pages) {
		return fmt.Errorf("efb: %w: %d pages at %d, array has %d",
			ErrUFMWindow, len(pages), start, len(m.pages))
	}

	copy(m.pages[start:], pages)

	return nil
}

// Byte returns the byte at a flat address of the array.
func (m *Memory) Byte(addr int) byte {
	p, ok := m.Page(addr / protocol.PageSize)
	if !ok {
		return 0xFF
	}

	return p[addr%protocol.PageSize]
}

// NewMemory builds the UFM array of the configured device and loads its
// initial content. Relative init file names are resolved against baseDir.
func (c *Config) NewMemory(baseDir string) (*Memory, error) {
	mem := NewMemory(c.LastPage() + 1)

	if c.UFM == nil || c.UFM.ZeroMem {
		return mem, nil
	}

	path := c.UFM.InitMem
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	pages, err := LoadMemFile(path)
	if err != nil {
		return nil, err
	}

	if len(pages) > c.UFM.NumPages {
		pages = pages[:c.UFM.NumPages]
	}

	if err := mem.Load(c.UFM.StartPage, pages); err != nil {
		return nil, err
	}

	return mem, nil
}

// LoadMemFile reads a UFM initialization file.
func LoadMemFile(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("efb: opening memory file: %w", err)
	}
	defer f.Close()

	pages, err := ParseMem(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return pages, nil
}

// ParseMem decodes a memory file in the HEX format: one page per line, 32
// hex digits, most significant byte first. Blank lines and comments starting
// with # or // are skipped. Digits may be grouped with spaces or
// underscores.
func ParseMem(r io.Reader) ([]Page, error) {
	var pages []Page

	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		digits := strings.NewReplacer(" ", "", "\t", "", "_", "").Replace(line)
		if len(digits) != 2*protocol.PageSize {
			return nil, fmt.Errorf("%w: line %d has %d hex digits, want %d",
				ErrMemFormat, lineNo, len(digits), 2*protocol.PageSize)
		}

		var p Page
		if _, err := hex.Decode(p[:], []byte(digits)); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMemFormat, lineNo, err)
		}

		pages = append(pages, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return pages, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}

	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}

	return strings.TrimSpace(line)
}

// FormatMem writes pages in the format read by ParseMem.
func FormatMem(w io.Writer, pages []Page) error {
	for _, p := range pages {
		if _, err := fmt.Fprintln(w, strings.ToUpper(hex.EncodeToString(p[:]))); err != nil {
			return err
		}
	}

	return nil
}
