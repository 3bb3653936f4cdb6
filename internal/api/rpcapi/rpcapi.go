// Package rpcapi exposes the distance service over pkg/rpc and provides the
// matching client used by `wdist query --remote`.
package rpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/distance"
	"github.com/Adithya-Monish-Kumar-K/worddistance/internal/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/worddistance/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/worddistance/pkg/rpc"
)

type Lister interface {
	List() []corpus.Summary
}

// Register installs the DistanceService methods and the error mapper on s.
// m may be nil.
func Register(s *rpc.Server, svc *query.Service, corpora Lister, m *metrics.Metrics) {
	s.SetErrorMapper(MapError)

	s.Register(proto.MethodShortestDistance, instrument(m, proto.MethodShortestDistance,
		func(ctx context.Context, params json.RawMessage) (any, error) {
			var req proto.DistanceRequest
			if err := json.Unmarshal(params, &req); err != nil {
				return nil, &rpc.Error{Code: rpc.CodeInvalid, Message: "malformed params: " + err.Error()}
			}
			res, err := svc.Distance(ctx, req.Corpus, req.Word1, req.Word2)
			if err != nil {
				return nil, err
			}
			return &proto.DistanceResponse{
				Corpus:   res.Corpus,
				Word1:    res.Word1,
				Word2:    res.Word2,
				Distance: res.Distance,
				CacheHit: res.CacheHit,
			}, nil
		}))

	s.Register(proto.MethodListCorpora, instrument(m, proto.MethodListCorpora,
		func(ctx context.Context, params json.RawMessage) (any, error) {
			list := corpora.List()
			resp := &proto.ListCorporaResponse{Corpora: make([]proto.CorpusInfo, 0, len(list))}
			for _, c := range list {
				resp.Corpora = append(resp.Corpora, proto.CorpusInfo{
					Name:          c.Name,
					WordCount:     c.WordCount,
					DistinctWords: c.DistinctWords,
					ContentHash:   c.ContentHash,
					CreatedAt:     c.CreatedAt.Unix(),
				})
			}
			return resp, nil
		}))

	s.Register(proto.MethodHealth, instrument(m, proto.MethodHealth,
		func(ctx context.Context, params json.RawMessage) (any, error) {
			return &proto.HealthCheckResponse{Status: "SERVING"}, nil
		}))
}

// MapError converts service errors into wire codes. A missing word keeps the
// word in Detail so clients can rebuild the typed error.
func MapError(err error) *rpc.Error {
	if word, ok := distance.MissingWord(err); ok {
		return &rpc.Error{Code: rpc.CodeWordNotFound, Message: err.Error(), Detail: word}
	}
	var appErr *apperrors.AppError
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	switch apperrors.HTTPStatusCode(err) {
	case http.StatusNotFound:
		return &rpc.Error{Code: rpc.CodeNotFound, Message: message}
	case http.StatusBadRequest:
		return &rpc.Error{Code: rpc.CodeInvalid, Message: message}
	case http.StatusServiceUnavailable:
		return &rpc.Error{Code: rpc.CodeUnavailable, Message: message}
	default:
		return &rpc.Error{Code: rpc.CodeInternal, Message: message}
	}
}

func instrument(m *metrics.Metrics, method string, next rpc.HandlerFunc) rpc.HandlerFunc {
	if m == nil {
		return next
	}
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		res, err := next(ctx, params)
		code := "ok"
		if err != nil {
			var wire *rpc.Error
			if !errors.As(err, &wire) {
				wire = MapError(err)
			}
			code = wire.Code
		}
		m.RPCRequestsTotal.WithLabelValues(method, code).Inc()
		return res, err
	}
}

// Client is a typed DistanceService client.
type Client struct {
	conn *rpc.Client
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	conn, err := rpc.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// ShortestDistance queries the remote server. Wire errors come back as the
// same error kinds a local query returns.
func (c *Client) ShortestDistance(ctx context.Context, corpusName, word1, word2 string) (*proto.DistanceResponse, error) {
	var resp proto.DistanceResponse
	err := c.conn.Call(ctx, proto.MethodShortestDistance, &proto.DistanceRequest{
		Corpus: corpusName,
		Word1:  word1,
		Word2:  word2,
	}, &resp)
	if err != nil {
		return nil, unwrapError(err)
	}
	return &resp, nil
}

func (c *Client) ListCorpora(ctx context.Context) ([]proto.CorpusInfo, error) {
	var resp proto.ListCorporaResponse
	if err := c.conn.Call(ctx, proto.MethodListCorpora, &proto.ListCorporaRequest{}, &resp); err != nil {
		return nil, unwrapError(err)
	}
	return resp.Corpora, nil
}

func (c *Client) Health(ctx context.Context) (string, error) {
	var resp proto.HealthCheckResponse
	if err := c.conn.Call(ctx, proto.MethodHealth, nil, &resp); err != nil {
		return "", unwrapError(err)
	}
	return resp.Status, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func unwrapError(err error) error {
	var wire *rpc.Error
	if !errors.As(err, &wire) {
		return err
	}
	switch wire.Code {
	case rpc.CodeWordNotFound:
		return &distance.NotFoundError{Word: wire.Detail}
	case rpc.CodeNotFound:
		return apperrors.New(apperrors.ErrCorpusNotFound, http.StatusNotFound, wire.Message)
	case rpc.CodeInvalid:
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, wire.Message)
	case rpc.CodeUnavailable:
		return apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, wire.Message)
	default:
		return fmt.Errorf("remote query failed: %w", wire)
	}
}
