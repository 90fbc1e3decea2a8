package client

import (
	"fmt"
	"io"
	"strings"

	"filerelay/internal/model"
	"filerelay/internal/upload"
)

const barWidth = 30

// Palette holds the ANSI colour codes for one theme.
type Palette struct {
	Success string
	Error   string
	Info    string
	Accent  string
	Muted   string
}

var palettes = map[Theme]Palette{
	ThemeDark:  {Success: "92", Error: "91", Info: "96", Accent: "95", Muted: "90"},
	ThemeLight: {Success: "32", Error: "31", Info: "34", Accent: "35", Muted: "90"},
}

// UI is the presentation state of one uploader run. Render functions take it
// explicitly instead of writing to globals.
type UI struct {
	Out      io.Writer
	Err      io.Writer
	Theme    Theme
	Color    bool
	Previews []*File
	Result   *model.UploadResult
}

// NewUI returns UI state writing to out and errOut.
func NewUI(out, errOut io.Writer, theme Theme, color bool) *UI {
	return &UI{Out: out, Err: errOut, Theme: theme, Color: color}
}

func (u *UI) paint(code, s string) string {
	if !u.Color || code == "" {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (u *UI) palette() Palette {
	if p, ok := palettes[u.Theme]; ok {
		return p
	}
	return palettes[ThemeDark]
}

// Success shows a success notification.
func (u *UI) Success(format string, args ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", u.paint(u.palette().Success, "✓"), fmt.Sprintf(format, args...))
}

// Info shows an informational notification.
func (u *UI) Info(format string, args ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", u.paint(u.palette().Info, "•"), fmt.Sprintf(format, args...))
}

// Error shows a failure notification on the error stream.
func (u *UI) Error(format string, args ...any) {
	fmt.Fprintf(u.Err, "%s %s\n", u.paint(u.palette().Error, "✗"), fmt.Sprintf(format, args...))
}

// Badge is the static preview label for a MIME type.
func Badge(mimeType string) string {
	switch upload.KindOf(mimeType) {
	case upload.KindImage:
		return "IMAGE"
	case upload.KindVideo:
		return "VIDEO"
	case upload.KindAudio:
		return "AUDIO"
	case upload.KindPDF:
		return "PDF"
	case upload.KindArchive:
		return "ZIP"
	default:
		return "FILE"
	}
}

// AddPreview records f as previewed and renders its entry.
func (u *UI) AddPreview(f *File) {
	u.Previews = append(u.Previews, f)
	fmt.Fprintf(u.Out, "  %s %s  %s\n",
		u.paint(u.palette().Accent, fmt.Sprintf("[%-5s]", Badge(f.Type))),
		upload.SanitizeFilename(f.Name),
		u.paint(u.palette().Muted, upload.FormatSize(f.Size)),
	)
}

// ProgressLine renders the bar, percentage and "loaded / total" text.
func ProgressLine(e ProgressEvent) string {
	pct := e.Percent()
	filled := int(pct / 100 * barWidth)
	return fmt.Sprintf("[%s%s] %3.0f%%  %s / %s",
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled),
		pct, upload.FormatSize(e.Loaded), upload.FormatSize(e.Total))
}

// DisplayProgress redraws the progress line for every event until events
// is closed, then clears it.
func (u *UI) DisplayProgress(events <-chan ProgressEvent) {
	drawn := false
	for e := range events {
		fmt.Fprintf(u.Out, "\r%s", ProgressLine(e))
		drawn = true
	}
	if drawn {
		fmt.Fprint(u.Out, "\r\033[K")
	}
}

// ShowResult fills the result panel.
func (u *UI) ShowResult(r *model.UploadResult) {
	u.Result = r
	p := u.palette()
	fmt.Fprintf(u.Out, "  %s %s\n", u.paint(p.Muted, "URL: "), r.FileURL)
	if r.ThumbnailURL != "" {
		fmt.Fprintf(u.Out, "  %s %s\n", u.paint(p.Muted, "Thumb:"), r.ThumbnailURL)
	}
	fmt.Fprintf(u.Out, "  %s %s\n", u.paint(p.Muted, "Name:"), r.FileName)
	fmt.Fprintf(u.Out, "  %s %s\n", u.paint(p.Muted, "Type:"), r.FileType)
	fmt.Fprintf(u.Out, "  %s %s\n", u.paint(p.Muted, "Size:"), upload.FormatSize(r.FileSize))
	fmt.Fprintf(u.Out, "  %s %s\n", u.paint(p.Muted, "ID:  "), r.FileID)
}
