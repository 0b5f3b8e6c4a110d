package plan

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"movie-maker/internal/apperr"
)

// maxOutputName matches the common filesystem limit for a single path element.
const maxOutputName = 255

var formatPattern = regexp.MustCompile(`^[a-z0-9]{2,8}$`)

// containers maps a Convert target extension to the ffmpeg muxer that writes it.
var containers = map[string]string{
	"mp4":  "mp4",
	"avi":  "avi",
	"mov":  "mov",
	"wmv":  "asf",
	"mkv":  "matroska",
	"webm": "webm",
	"flv":  "flv",
	"gif":  "gif",
	"mp3":  "mp3",
	"m4a":  "ipod",
	"ogg":  "ogg",
	"wav":  "wav",
}

// Formats returns the accepted Convert targets.
func Formats() []string {
	out := make([]string, 0, len(containers))
	for f := range containers {
		out = append(out, f)
	}
	return out
}

// Plan is a fully resolved engine invocation.
type Plan struct {
	// ID is the uniqueness token embedded in OutputName.
	ID        string
	Operation Operation
	// Inputs are absolute source paths in request order.
	Inputs []string

	// Seek and Duration are set for trim.
	Seek     *float64
	Duration *float64

	// FilterGraph is the -vf expression for filter. Empty with
	// StreamCopy means the input is remuxed unchanged.
	FilterGraph string
	StreamCopy  bool

	// Muxer and bitrates are set for convert.
	Muxer        string
	VideoBitrate string
	AudioBitrate string

	// ConcatList means Inputs are fed through a concat demuxer list file.
	ConcatList bool

	OutputName string
	Output     string
}

// Args renders the ffmpeg argument vector. listFile is the path of the
// concat list and is ignored for other operations.
func (p *Plan) Args(listFile string) []string {
	args := []string{"-y", "-hide_banner", "-nostdin"}

	switch {
	case p.ConcatList:
		args = append(args, "-f", "concat", "-safe", "0", "-i", listFile)
	default:
		if p.Seek != nil {
			args = append(args, "-ss", formatNumber(*p.Seek))
		}
		for _, in := range p.Inputs {
			args = append(args, "-i", in)
		}
	}

	if p.Duration != nil {
		args = append(args, "-t", formatNumber(*p.Duration))
	}
	if p.FilterGraph != "" {
		args = append(args, "-vf", p.FilterGraph)
	}
	if p.StreamCopy {
		args = append(args, "-c", "copy")
	}
	if p.VideoBitrate != "" {
		args = append(args, "-b:v", p.VideoBitrate)
	}
	if p.AudioBitrate != "" {
		args = append(args, "-b:a", p.AudioBitrate)
	}
	if p.Muxer != "" {
		args = append(args, "-f", p.Muxer)
	}

	return append(args, p.Output)
}

// ConcatListing renders the concat demuxer list for Inputs.
func (p *Plan) ConcatListing() []byte {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, in := range p.Inputs {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(in, "'", `'\''`))
		b.WriteString("'\n")
	}
	return []byte(b.String())
}

// String returns the command line for logs.
func (p *Plan) String() string {
	return "ffmpeg " + strings.Join(p.Args("<list>"), " ")
}

// Builder turns requests into plans. It performs no I/O.
type Builder struct {
	OutputDir string
	// Token returns a fresh uniqueness token for each plan.
	Token func() string
}

// NewBuilder returns a Builder writing into outputDir with DefaultToken.
func NewBuilder(outputDir string) *Builder {
	return &Builder{OutputDir: outputDir, Token: DefaultToken}
}

// DefaultToken returns {unixMillis}-{8 hex digits}. The random suffix keeps
// tokens distinct for requests landing in the same millisecond.
func DefaultToken() string {
	id := uuid.New()
	return fmt.Sprintf("%d-%x", time.Now().UnixMilli(), id[:4])
}

// Build maps req onto a Plan. inputs are the resolved paths of
// req.Sources(), in the same order.
func (b *Builder) Build(req Request, inputs []string) (*Plan, error) {
	if req == nil {
		return nil, apperr.Validation("build", "missing request")
	}
	if len(inputs) != len(req.Sources()) {
		return nil, apperr.Internal("build", fmt.Errorf("%d inputs for %d sources", len(inputs), len(req.Sources())))
	}

	token := b.token()
	p := &Plan{
		ID:        token,
		Operation: req.Operation(),
		Inputs:    append([]string(nil), inputs...),
	}

	var err error
	switch r := req.(type) {
	case Trim:
		err = buildTrim(p, r, token)
	case *Trim:
		err = buildTrim(p, *r, token)
	case Concat:
		err = buildConcat(p, r, token)
	case *Concat:
		err = buildConcat(p, *r, token)
	case Convert:
		err = buildConvert(p, r, token)
	case *Convert:
		err = buildConvert(p, *r, token)
	case Filter:
		err = buildFilter(p, r, token)
	case *Filter:
		err = buildFilter(p, *r, token)
	default:
		err = apperr.Validation("build", "unsupported operation %q", req.Operation())
	}
	if err != nil {
		return nil, err
	}

	if len(p.OutputName) > maxOutputName {
		return nil, apperr.Validation("build", "output name would exceed %d bytes", maxOutputName)
	}
	p.Output = filepath.Join(b.OutputDir, p.OutputName)
	return p, nil
}

func (b *Builder) token() string {
	if b.Token != nil {
		return b.Token()
	}
	return DefaultToken()
}

func buildTrim(p *Plan, r Trim, token string) error {
	if !finite(r.Start) || !finite(r.End) {
		return apperr.Validation("trim", "start and end must be finite numbers")
	}
	if r.Start < 0 {
		return apperr.Validation("trim", "start must not be negative")
	}
	if r.End <= r.Start {
		return apperr.Validation("trim", "end (%s) must be after start (%s)", formatNumber(r.End), formatNumber(r.Start))
	}

	seek := r.Start
	duration := r.End - r.Start
	p.Seek = &seek
	p.Duration = &duration
	p.OutputName = fmt.Sprintf("%s-%s-%s", OpTrim.Tag(), token, r.Source)
	return nil
}

func buildConcat(p *Plan, r Concat, token string) error {
	if len(r.Names) < 2 {
		return apperr.Validation("concat", "at least 2 files are required")
	}

	p.ConcatList = true
	p.StreamCopy = true
	p.OutputName = fmt.Sprintf("%s-%s.mp4", OpConcat.Tag(), token)
	return nil
}

func buildConvert(p *Plan, r Convert, token string) error {
	format := r.Format
	if !formatPattern.MatchString(format) {
		return apperr.Validation("convert", "invalid format %q", format)
	}
	muxer, ok := containers[format]
	if !ok {
		return apperr.Validation("convert", "unsupported format %q", format)
	}
	if !r.Quality.Valid() {
		return apperr.Validation("convert", "unknown quality %q", r.Quality)
	}

	p.Muxer = muxer
	if video, audio, ok := r.Quality.Bitrates(); ok {
		p.VideoBitrate = video
		p.AudioBitrate = audio
	}
	p.OutputName = fmt.Sprintf("%s-%s.%s", OpConvert.Tag(), token, format)
	return nil
}

func buildFilter(p *Plan, r Filter, token string) error {
	for _, param := range []struct {
		name     string
		value    *float64
		positive bool
	}{
		{"brightness", r.Brightness, false},
		{"contrast", r.Contrast, true},
		{"saturation", r.Saturation, true},
	} {
		if param.value == nil {
			continue
		}
		if !finite(*param.value) {
			return apperr.Validation("filter", "%s must be a finite number", param.name)
		}
		if param.positive && *param.value < 0 {
			return apperr.Validation("filter", "%s must not be negative", param.name)
		}
	}

	p.FilterGraph = r.expression()
	p.StreamCopy = p.FilterGraph == ""
	p.OutputName = fmt.Sprintf("%s-%s-%s", OpFilter.Tag(), token, r.Source)
	return nil
}

// expression renders the eq filter for the parameters that are set, in the
// fixed order brightness, contrast, saturation.
func (r Filter) expression() string {
	var parts []string
	if r.Brightness != nil {
		parts = append(parts, "brightness="+formatNumber(*r.Brightness))
	}
	if r.Contrast != nil {
		parts = append(parts, "contrast="+formatNumber(*r.Contrast))
	}
	if r.Saturation != nil {
		parts = append(parts, "saturation="+formatNumber(*r.Saturation))
	}
	if len(parts) == 0 {
		return ""
	}
	return "eq=" + strings.Join(parts, ":")
}

// formatNumber renders v as the shortest decimal that parses back to v.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
