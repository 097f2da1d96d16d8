package server

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/grpc"

	"github.com/joseph-ayodele/tradeslip/internal/common"
	"github.com/joseph-ayodele/tradeslip/internal/core"
	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
	"github.com/joseph-ayodele/tradeslip/internal/core/parse"
	"github.com/joseph-ayodele/tradeslip/internal/ingest"
)

const (
	slipServiceName    = "tradeslip.v1.SlipService"
	ParseTextMethod    = "/" + slipServiceName + "/ParseText"
	ScanDocumentMethod = "/" + slipServiceName + "/ScanDocument"
)

// Pipeline is what the transports need from *core.Processor.
type Pipeline interface {
	Process(ctx context.Context, doc extract.RawDocument, onProgress extract.ProgressFunc) (*core.Outcome, error)
	ParseText(text string) (parse.Candidate, []byte, error)
}

// SlipServer is the server API for tradeslip.v1.SlipService.
type SlipServer interface {
	ParseText(context.Context, *ParseTextRequest) (*ParseTextResponse, error)
	ScanDocument(*ScanDocumentRequest, ScanDocumentStream) error
}

// ScanDocumentStream is the server side of the ScanDocument stream.
type ScanDocumentStream interface {
	Send(*ScanEvent) error
	grpc.ServerStream
}

type scanDocumentStream struct {
	grpc.ServerStream
}

func (s *scanDocumentStream) Send(ev *ScanEvent) error { return s.ServerStream.SendMsg(ev) }

func parseTextHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ParseTextRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SlipServer).ParseText(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ParseTextMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SlipServer).ParseText(ctx, req.(*ParseTextRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func scanDocumentHandler(srv any, stream grpc.ServerStream) error {
	in := new(ScanDocumentRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SlipServer).ScanDocument(in, &scanDocumentStream{stream})
}

// SlipServiceDesc is registered with grpc.Server.RegisterService.
var SlipServiceDesc = grpc.ServiceDesc{
	ServiceName: slipServiceName,
	HandlerType: (*SlipServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ParseText", Handler: parseTextHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "ScanDocument", Handler: scanDocumentHandler, ServerStreams: true},
	},
	Metadata: "tradeslip/v1/slip.proto",
}

// SlipService implements SlipServer on top of the pipeline.
type SlipService struct {
	pipeline Pipeline
	logger   *slog.Logger
	maxBytes int64
}

func NewSlipService(pipeline Pipeline, maxBytes int64, logger *slog.Logger) *SlipService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = ingest.DefaultMaxBytes
	}
	return &SlipService{pipeline: pipeline, logger: logger, maxBytes: maxBytes}
}

// ParseText implements SlipServer.
func (s *SlipService) ParseText(ctx context.Context, req *ParseTextRequest) (*ParseTextResponse, error) {
	logger := common.LoggerFromContext(ctx, s.logger)
	if strings.TrimSpace(req.Text) == "" {
		return nil, common.InvalidArgumentError("text is required")
	}
	cand, _, err := s.pipeline.ParseText(req.Text)
	if err != nil {
		logger.Error("parse text failed", "error", err)
		return nil, common.InternalError("parse failed")
	}
	return &ParseTextResponse{Candidate: cand, NeedsReview: cand.NeedsReview()}, nil
}

// ScanDocument implements SlipServer. It streams progress, then the result.
func (s *SlipService) ScanDocument(req *ScanDocumentRequest, stream ScanDocumentStream) error {
	ctx := stream.Context()
	logger := common.LoggerFromContext(ctx, s.logger)

	if len(req.Data) == 0 {
		return common.InvalidArgumentError("data is required")
	}
	if int64(len(req.Data)) > s.maxBytes {
		return common.ResourceExhaustedError("file too large")
	}

	var (
		mu      sync.Mutex
		sendErr error
	)
	onProgress := func(p extract.Progress) {
		mu.Lock()
		defer mu.Unlock()
		if sendErr != nil {
			return
		}
		sendErr = stream.Send(&ScanEvent{Progress: &p})
	}

	doc := ingest.FromBytes(req.Data, req.MediaType, req.Filename)
	out, err := s.pipeline.Process(ctx, doc, onProgress)
	if err != nil {
		logger.Warn("scan document failed", "filename", req.Filename, "error", err)
		return toStatus(ctx, err)
	}
	if sendErr != nil {
		return sendErr
	}
	return stream.Send(&ScanEvent{Result: NewScanResult(out)})
}
