package httpserver

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/and161185/audio-dementia/internal/errs"
	"github.com/and161185/audio-dementia/internal/pagination"
)

// paramError reports a missing or mistyped request parameter.
type paramError struct {
	name string
	kind string // int, str or positive int
}

func (e *paramError) Error() string {
	return fmt.Sprintf("Parameter %s of type %s is required", e.name, e.kind)
}

// params reads named values from a JSON body, or from the query string and
// form when the request is not JSON.
type params struct {
	r    *http.Request
	json map[string]any
}

const maxBody = 1 << 20

func readParams(r *http.Request) (*params, error) {
	p := &params{r: r}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" && r.Body != nil {
		dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
		dec.UseNumber()
		var body map[string]any
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: decode body: %v", errs.ErrValidation, err)
		}
		p.json = body
		return p, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: parse form: %v", errs.ErrValidation, err)
	}
	return p, nil
}

func (p *params) lookup(name string) (string, bool) {
	if p.json != nil {
		v, ok := p.json[name]
		if !ok || v == nil {
			return "", false
		}
		switch t := v.(type) {
		case string:
			return t, true
		case json.Number:
			return t.String(), true
		default:
			return "", false
		}
	}
	if vs, ok := p.r.Form[name]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

// str returns a required string parameter. Blank values are returned as is.
func (p *params) str(name string) (string, error) {
	v, ok := p.lookup(name)
	if !ok {
		return "", &paramError{name: name, kind: "str"}
	}
	return v, nil
}

// optStr returns the parameter or "".
func (p *params) optStr(name string) string {
	v, _ := p.lookup(name)
	return v
}

// integer returns a required integer parameter.
func (p *params) integer(name string) (int64, error) {
	v, ok := p.lookup(name)
	if !ok {
		return 0, &paramError{name: name, kind: "int"}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &paramError{name: name, kind: "int"}
	}
	return n, nil
}

// optInteger returns the parameter, def when it is absent or empty.
func (p *params) optInteger(name string, def int64) (int64, error) {
	v, ok := p.lookup(name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &paramError{name: name, kind: "int"}
	}
	return n, nil
}

// page reads per_page and last_id.
func (p *params) page() (pagination.Page, error) {
	size, err := p.optInteger("per_page", pagination.DefaultSize)
	if err != nil || size <= 0 {
		return pagination.Page{}, &paramError{name: "per_page", kind: "positive int"}
	}
	after, err := p.optInteger("last_id", 0)
	if err != nil {
		return pagination.Page{}, err
	}
	return pagination.New(int(size), after)
}
