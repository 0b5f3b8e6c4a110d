package plan

import (
	"fmt"
	"strings"
)

// Operation identifies the kind of edit a job performs.
type Operation string

// Supported operations.
const (
	OpTrim    Operation = "trim"
	OpConcat  Operation = "concat"
	OpConvert Operation = "convert"
	OpFilter  Operation = "filter"
)

// Operations lists every supported operation in display order.
var Operations = []Operation{OpTrim, OpConcat, OpConvert, OpFilter}

var operationTags = map[Operation]string{
	OpTrim:    "trimmed",
	OpConcat:  "concat",
	OpConvert: "converted",
	OpFilter:  "filtered",
}

// Tag returns the output name prefix for the operation.
func (o Operation) Tag() string {
	return operationTags[o]
}

// OperationFromName recovers the producing operation from an output name.
func OperationFromName(name string) (Operation, bool) {
	for _, op := range Operations {
		if strings.HasPrefix(name, op.Tag()+"-") {
			return op, true
		}
	}
	return "", false
}

// Quality selects a bitrate tier for Convert.
type Quality string

// Quality tiers. QualityDefault leaves bitrates to the engine.
const (
	QualityDefault Quality = ""
	QualityLow     Quality = "low"
	QualityMedium  Quality = "medium"
	QualityHigh    Quality = "high"
)

type bitrates struct {
	video string
	audio string
}

var qualityTable = map[Quality]bitrates{
	QualityLow:    {video: "500k", audio: "64k"},
	QualityMedium: {video: "1000k", audio: "128k"},
	QualityHigh:   {video: "2000k", audio: "128k"},
}

// Bitrates returns the video and audio bitrate for q. ok is false for
// QualityDefault and unknown tiers.
func (q Quality) Bitrates() (video, audio string, ok bool) {
	b, ok := qualityTable[q]
	return b.video, b.audio, ok
}

// Valid reports whether q is a known tier or the default.
func (q Quality) Valid() bool {
	if q == QualityDefault {
		return true
	}
	_, ok := qualityTable[q]
	return ok
}

// Request is an edit request. The concrete types are Trim, Concat, Convert
// and Filter.
type Request interface {
	Operation() Operation
	// Sources returns the upload names the request reads, in order.
	Sources() []string
	fmt.Stringer

	isRequest()
}

// Trim cuts [Start, End) seconds out of Source.
type Trim struct {
	Source string
	Start  float64
	End    float64
}

// Concat appends the Names uploads end to end, in order.
type Concat struct {
	Names []string
}

// Convert re-encodes Source into the container Format.
type Convert struct {
	Source  string
	Format  string
	Quality Quality
}

// Filter applies an eq colour adjustment. Nil fields are left out.
type Filter struct {
	Source     string
	Brightness *float64
	Contrast   *float64
	Saturation *float64
}

func (Trim) Operation() Operation    { return OpTrim }
func (Concat) Operation() Operation  { return OpConcat }
func (Convert) Operation() Operation { return OpConvert }
func (Filter) Operation() Operation  { return OpFilter }

func (r Trim) Sources() []string    { return []string{r.Source} }
func (r Concat) Sources() []string  { return append([]string(nil), r.Names...) }
func (r Convert) Sources() []string { return []string{r.Source} }
func (r Filter) Sources() []string  { return []string{r.Source} }

func (r Trim) String() string {
	return fmt.Sprintf("trim %s [%s, %s)", r.Source, formatNumber(r.Start), formatNumber(r.End))
}

func (r Concat) String() string {
	return fmt.Sprintf("concat %s", strings.Join(r.Names, " + "))
}

func (r Convert) String() string {
	if r.Quality == QualityDefault {
		return fmt.Sprintf("convert %s to %s", r.Source, r.Format)
	}
	return fmt.Sprintf("convert %s to %s (%s)", r.Source, r.Format, r.Quality)
}

func (r Filter) String() string {
	if expr := r.expression(); expr != "" {
		return fmt.Sprintf("filter %s %s", r.Source, expr)
	}
	return fmt.Sprintf("filter %s (copy)", r.Source)
}

func (Trim) isRequest()    {}
func (Concat) isRequest()  {}
func (Convert) isRequest() {}
func (Filter) isRequest()  {}
