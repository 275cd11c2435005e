package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/napthedev/edura/core"
	"github.com/napthedev/edura/core/resource"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func toFile(fh *multipart.FileHeader) *resource.File {
	return &resource.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formFile binds the single file sent under field; nil when there is none.
func formFile(ctx echo.Context, field string) (*resource.File, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, badMultipart(err)
	}
	return toFile(fh), nil
}

// formFiles binds every file sent under field, or under "field[]" as browsers do.
func formFiles(ctx echo.Context, field string) ([]*resource.File, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, badMultipart(err)
	}
	headers := form.File[field]
	headers = append(headers, form.File[field+"[]"]...)

	files := make([]*resource.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, toFile(fh))
	}
	return files, nil
}

func badMultipart(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
}
