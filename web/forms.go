package web

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/Skryldev/portfolio/models"
)

// maxFormMemory bounds the multipart body kept in memory. The admin forms
// carry text only.
const maxFormMemory = 1 << 20

// errMalformedForm is returned when the body cannot be parsed or decoded.
var errMalformedForm = errors.New("web: malformed form")

type loginForm struct {
	Username string `form:"username" validate:"required,min=3,max=50"`
	Password string `form:"password" validate:"required,min=4"`
}

type aboutForm struct {
	FullName     string `form:"full_name" validate:"required,max=100"`
	Title        string `form:"title" validate:"required,max=100"`
	Summary      string `form:"summary" validate:"required"`
	Email        string `form:"email" validate:"omitempty,email"`
	Phone        string `form:"phone"`
	Address      string `form:"address"`
	ProfileImage string `form:"profile_image"`
}

func (f *aboutForm) about() models.About {
	return models.About{
		FullName:     f.FullName,
		Title:        f.Title,
		Summary:      f.Summary,
		Email:        f.Email,
		Phone:        f.Phone,
		Address:      f.Address,
		ProfileImage: f.ProfileImage,
	}
}

// newValidator reports field errors under their form names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return strings.ToLower(fld.Name)
	})
	return v
}

// newFormDecoder fills structs by their form tags. Optional integers read as
// nil unless a number was submitted, and every bool is a checkbox.
func newFormDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(decodeOptionalInt, (*int)(nil))
	d.RegisterCustomTypeFunc(decodeCheckbox, false)
	return d
}

// decodeOptionalInt parses the first submitted value. Blank or non-numeric
// input yields nil. Numbers past the int range saturate at its bounds, so a
// huge level still clamps to the top of the scale.
func decodeOptionalInt(vals []string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(vals[0]))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return (*int)(nil), nil
	}
	return &n, nil
}

// decodeCheckbox reports a ticked HTML checkbox.
func decodeCheckbox(vals []string) (any, error) {
	return vals[0] == "on", nil
}

// postForm returns the submitted body fields for urlencoded and multipart
// requests alike.
func postForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	return r.PostForm, nil
}

// decodeBody decodes the request body into dst.
func (s *Server) decodeBody(r *http.Request, dst any) error {
	v, err := postForm(r)
	if err != nil {
		return errors.Join(errMalformedForm, err)
	}
	if err := s.forms.Decode(dst, v); err != nil {
		return errors.Join(errMalformedForm, err)
	}
	return nil
}

// bind decodes the request body into dst and validates it. On failure it
// returns the failing rule per field.
func (s *Server) bind(r *http.Request, dst any) (map[string]string, bool) {
	if err := s.decodeBody(r, dst); err != nil {
		return map[string]string{"form": "malformed body"}, false
	}

	err := s.validate.Struct(dst)
	if err == nil {
		return nil, true
	}
	fields := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return fields, false
}
