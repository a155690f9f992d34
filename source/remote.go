package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/siherrmann/visualgenome/core/scenegraph"
	"github.com/siherrmann/visualgenome/helper"
	"github.com/siherrmann/visualgenome/model"
	"github.com/valyala/fasthttp"
)

// IDsPerPage is the page size of the image id listing.
const IDsPerPage = 1000

// Fetcher returns the JSON body of an API path. A missing resource is
// reported as model.ErrNotFound.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// HTTPFetcher fetches API paths relative to a base URL with fasthttp.
type HTTPFetcher struct {
	client  *fasthttp.Client
	baseURL string
}

// NewHTTPFetcher creates a fetcher for baseURL, e.g. https://visualgenome.org/api/v0.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &fasthttp.Client{Name: "visualgenome"},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// resolve keeps absolute URLs. Paths under the base path, as returned in
// next, are resolved against the host, other paths are relative to the base URL.
func (f *HTTPFetcher) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	base, err := url.Parse(f.baseURL)
	if err == nil && base.Path != "" && (ref.Path == base.Path || strings.HasPrefix(ref.Path, base.Path+"/")) {
		return base.ResolveReference(ref).String()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return f.baseURL + path
}

// Fetch issues a GET request. Without a context deadline the request
// blocks until the server answers.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	err := ctx.Err()
	if err != nil {
		return nil, helper.NewError("fetch "+path, err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(f.resolve(path))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	if deadline, ok := ctx.Deadline(); ok {
		err = f.client.DoDeadline(req, resp, deadline)
	} else {
		err = f.client.Do(req, resp)
	}
	if err != nil {
		return nil, helper.NewError("fetch "+path, err)
	}

	// The body is owned by resp and released on return.
	body := append([]byte(nil), resp.Body()...)

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound:
		return body, fmt.Errorf("%w: %s", model.ErrNotFound, path)
	case status >= 400:
		return body, helper.NewError("fetch "+path, fmt.Errorf("unexpected status %d", status))
	}
	return body, nil
}

// RemoteSource reads records from the remote API. Every call issues its
// requests again, pages are fetched strictly one after another.
type RemoteSource struct {
	fetcher Fetcher
	log     *slog.Logger
}

// NewRemoteSource creates a source on top of fetcher.
func NewRemoteSource(fetcher Fetcher, logger *slog.Logger) *RemoteSource {
	if logger == nil {
		logger = helper.NewDiscardLogger()
	}
	return &RemoteSource{
		fetcher: fetcher,
		log:     logger,
	}
}

// NewRemoteSourceFromConfig creates a source for https://<APIHost><APIBasePath>.
func NewRemoteSourceFromConfig(config model.Config, logger *slog.Logger) *RemoteSource {
	return NewRemoteSource(NewHTTPFetcher("https://"+config.APIHost+config.APIBasePath), logger)
}

func (r *RemoteSource) fetchJSON(ctx context.Context, path string, v interface{}) error {
	data, err := r.fetcher.Fetch(ctx, path)
	if err != nil {
		return err
	}
	err = json.Unmarshal(data, v)
	if err != nil {
		return helper.NewError("decode "+path, fmt.Errorf("%w: %v", model.ErrMalformedRecord, err))
	}
	return nil
}

type page struct {
	Results json.RawMessage `json:"results"`
	Next    *string         `json:"next"`
}

// paginate follows next from path until it is null or each returns false.
func (r *RemoteSource) paginate(ctx context.Context, path string, each func(results json.RawMessage) (bool, error)) error {
	next := &path
	for next != nil && *next != "" {
		var p page
		err := r.fetchJSON(ctx, *next, &p)
		if err != nil {
			return err
		}
		r.log.Debug("Fetched page", slog.String("path", *next))

		more, err := each(p.Results)
		if err != nil {
			return helper.NewError("page "+*next, err)
		}
		if !more {
			return nil
		}
		next = p.Next
	}
	return nil
}

// GetAllImageIDs lists the ids of every image.
func (r *RemoteSource) GetAllImageIDs(ctx context.Context) ([]int, error) {
	ids := []int{}
	err := r.paginate(ctx, "/images/all?page=1", func(results json.RawMessage) (bool, error) {
		var pageIDs []int
		err := json.Unmarshal(results, &pageIDs)
		if err != nil {
			return false, fmt.Errorf("%w: %v", model.ErrMalformedRecord, err)
		}
		ids = append(ids, pageIDs...)
		return true, nil
	})
	if err != nil {
		return nil, helper.NewError("get all image ids", err)
	}
	return ids, nil
}

// GetImageIDsInRange returns the ids at listing positions start through
// end, both inclusive.
func (r *RemoteSource) GetImageIDsInRange(ctx context.Context, start int, end int) ([]int, error) {
	if start < 0 || end < start {
		return []int{}, nil
	}

	startPage := start/IDsPerPage + 1
	endPage := end/IDsPerPage + 1

	ids := []int{}
	for p := startPage; p <= endPage; p++ {
		var result page
		err := r.fetchJSON(ctx, fmt.Sprintf("/images/all?page=%d", p), &result)
		if err != nil {
			return nil, helper.NewError("get image ids in range", err)
		}
		var pageIDs []int
		err = json.Unmarshal(result.Results, &pageIDs)
		if err != nil {
			return nil, helper.NewError("get image ids in range", fmt.Errorf("%w: %v", model.ErrMalformedRecord, err))
		}
		ids = append(ids, pageIDs...)
		if result.Next == nil {
			break
		}
	}

	offset := start % IDsPerPage
	if offset >= len(ids) {
		return []int{}, nil
	}
	ids = ids[offset:]
	if n := end - start + 1; n < len(ids) {
		ids = ids[:n]
	}
	return ids, nil
}

// GetImageData returns the metadata of one image, or nil if the API does
// not know the id.
func (r *RemoteSource) GetImageData(ctx context.Context, id int) (*model.Image, error) {
	var raw struct {
		Detail string `json:"detail"`
		RawImage
	}
	err := r.fetchJSON(ctx, fmt.Sprintf("/images/%d", id), &raw)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, helper.NewError("get image data", err)
	}
	if raw.Detail == "Not found." {
		return nil, nil
	}

	if raw.ID == nil && raw.ImageID == nil {
		raw.ID = &id
	}
	return ParseImageData(raw.RawImage)
}

// GetRegionDescriptionsOfImage returns the regions of one image, or nil
// if the image is unknown.
func (r *RemoteSource) GetRegionDescriptionsOfImage(ctx context.Context, id int) ([]*model.Region, error) {
	image, err := r.GetImageData(ctx, id)
	if err != nil || image == nil {
		return nil, err
	}

	var raws []RawRegion
	err = r.fetchJSON(ctx, fmt.Sprintf("/images/%d/regions", id), &raws)
	if err != nil {
		return nil, helper.NewError("get region descriptions", err)
	}
	return ParseRegionDescriptions(raws, image)
}

// GetSceneGraphOfImage returns the scene graph of one image with its
// synsets resolved, or nil if the image is unknown.
func (r *RemoteSource) GetSceneGraphOfImage(ctx context.Context, id int) (*model.Graph, error) {
	image, err := r.GetImageData(ctx, id)
	if err != nil || image == nil {
		return nil, err
	}

	var raw scenegraph.RawAPIGraph
	err = r.fetchJSON(ctx, fmt.Sprintf("/images/%d/graph", id), &raw)
	if err != nil {
		return nil, helper.NewError("get scene graph", err)
	}
	return scenegraph.ParseAPI(raw, image)
}

// GetQAOfImage returns the question answer pairs of one image, or nil if
// the image is unknown.
func (r *RemoteSource) GetQAOfImage(ctx context.Context, id int) ([]*model.QA, error) {
	image, err := r.GetImageData(ctx, id)
	if err != nil || image == nil {
		return nil, err
	}

	qas, err := r.collectQAs(ctx, fmt.Sprintf("/images/%d/qa?page=1", id), 0, map[int]*model.Image{id: image})
	if err != nil {
		return nil, helper.NewError("get qa of image", err)
	}
	return qas, nil
}

// GetAllQAs returns up to qtotal question answer pairs, all of them when qtotal < 1.
func (r *RemoteSource) GetAllQAs(ctx context.Context, qtotal int) ([]*model.QA, error) {
	qas, err := r.collectQAs(ctx, "/qa/all?page=1", qtotal, nil)
	if err != nil {
		return nil, helper.NewError("get all qas", err)
	}
	return qas, nil
}

// GetQAOfType returns up to qtotal question answer pairs of one question
// type, e.g. "why", all of them when qtotal < 1.
func (r *RemoteSource) GetQAOfType(ctx context.Context, qtype string, qtotal int) ([]*model.QA, error) {
	qas, err := r.collectQAs(ctx, "/qa/"+url.PathEscape(qtype)+"?page=1", qtotal, nil)
	if err != nil {
		return nil, helper.NewError("get qa of type "+qtype, err)
	}
	return qas, nil
}

func (r *RemoteSource) collectQAs(ctx context.Context, path string, qtotal int, images map[int]*model.Image) ([]*model.QA, error) {
	var raws []RawQA
	err := r.paginate(ctx, path, func(results json.RawMessage) (bool, error) {
		var pageQAs []RawQA
		err := json.Unmarshal(results, &pageQAs)
		if err != nil {
			return false, fmt.Errorf("%w: %v", model.ErrMalformedRecord, err)
		}
		raws = append(raws, pageQAs...)
		return qtotal < 1 || len(raws) < qtotal, nil
	})
	if err != nil {
		return nil, err
	}

	if qtotal > 0 && len(raws) > qtotal {
		raws = raws[:qtotal]
	}
	return ParseQA(raws, images)
}
