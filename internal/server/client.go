package server

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

// Client calls SlipService over the JSON codec.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a plaintext client; extra options are appended.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
	conn, err := grpc.NewClient(addr, append(base, opts...)...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Conn exposes the connection, for the health client.
func (c *Client) Conn() *grpc.ClientConn { return c.conn }

func (c *Client) ParseText(ctx context.Context, text string) (*ParseTextResponse, error) {
	out := new(ParseTextResponse)
	if err := c.conn.Invoke(ctx, ParseTextMethod, &ParseTextRequest{Text: text}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScanDocument uploads a document and relays progress to onProgress until the result arrives.
func (c *Client) ScanDocument(ctx context.Context, req *ScanDocumentRequest, onProgress extract.ProgressFunc) (*ScanResult, error) {
	stream, err := c.conn.NewStream(ctx, &SlipServiceDesc.Streams[0], ScanDocumentMethod)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var result *ScanResult
	for {
		ev := new(ScanEvent)
		err := stream.RecvMsg(ev)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if ev.Progress != nil && onProgress != nil {
			onProgress(*ev.Progress)
		}
		if ev.Result != nil {
			result = ev.Result
		}
	}
	if result == nil {
		return nil, errors.New("stream ended without a result")
	}
	return result, nil
}
