package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/LexCase-Intelligence/internal/domain/legalcase"
	"github.com/turtacn/LexCase-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LexCase-Intelligence/pkg/errors"
)

const maxAnalysisObjectSize = 8 << 20

// DocumentAnalysisSource implements legalcase.DocumentAnalysisSource over
// objects named <prefix>/<document id>.json.
type DocumentAnalysisSource struct {
	client *Client
	prefix string
	logger logging.Logger
}

// NewDocumentAnalysisSource builds a source over client's bucket.
func NewDocumentAnalysisSource(client *Client, log logging.Logger) *DocumentAnalysisSource {
	return &DocumentAnalysisSource{
		client: client,
		prefix: strings.Trim(client.cfg.AnalysisPrefix, "/"),
		logger: log,
	}
}

// ObjectKey returns the object name holding documentID's analysis.
func (s *DocumentAnalysisSource) ObjectKey(documentID string) string {
	return path.Join(s.prefix, documentID+".json")
}

// GetDocumentAnalysis returns (nil, nil) when no object exists for the
// document.
func (s *DocumentAnalysisSource) GetDocumentAnalysis(ctx context.Context, documentID string) (*legalcase.DocumentAnalysisRecord, error) {
	if documentID == "" || strings.ContainsAny(documentID, `/\`) {
		return nil, errors.InvalidParam("invalid document id " + documentID)
	}
	api, err := s.client.objectAPI()
	if err != nil {
		return nil, err
	}

	key := s.ObjectKey(documentID)
	obj, err := api.GetObject(ctx, s.client.Bucket(), key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to fetch document analysis")
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxAnalysisObjectSize))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read document analysis")
	}

	var rec legalcase.DocumentAnalysisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode document analysis").
			WithDetail(key)
	}
	if rec.DocumentID == "" {
		rec.DocumentID = documentID
	}
	s.logger.Debug("document analysis loaded", logging.String("object", key))
	return &rec, nil
}

// PutDocumentAnalysis uploads rec under its document id.
func (s *DocumentAnalysisSource) PutDocumentAnalysis(ctx context.Context, rec *legalcase.DocumentAnalysisRecord) error {
	if rec == nil || rec.DocumentID == "" || strings.ContainsAny(rec.DocumentID, `/\`) {
		return errors.InvalidParam("document analysis must carry a valid document id")
	}
	api, err := s.client.objectAPI()
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode document analysis")
	}
	_, err = api.PutObject(ctx, s.client.Bucket(), s.ObjectKey(rec.DocumentID), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload document analysis")
	}
	return nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

//Personal.AI order the ending
