package server

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Client calls a bfcloud server.
type Client struct {
	allocNew    *connect.Client[NewRequest, Instance]
	allocGet    *connect.Client[GetRequest, Instance]
	allocDelete *connect.Client[DeleteRequest, DeleteResponse]
	allocList   *connect.Client[ListRequest, ListResponse]
	execUpload  *connect.Client[UploadRequest, Instance]
	execInput   *connect.Client[InputRequest, Instance]
	execRun     *connect.Client[RunRequest, RunResponse]
}

// NewClient creates a Client for the server at baseURL, for example
// "http://localhost:4570".
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opt := codecOption()
	return &Client{
		allocNew:    connect.NewClient[NewRequest, Instance](httpClient, baseURL+AllocNewProcedure, opt),
		allocGet:    connect.NewClient[GetRequest, Instance](httpClient, baseURL+AllocGetProcedure, opt),
		allocDelete: connect.NewClient[DeleteRequest, DeleteResponse](httpClient, baseURL+AllocDeleteProcedure, opt),
		allocList:   connect.NewClient[ListRequest, ListResponse](httpClient, baseURL+AllocListProcedure, opt),
		execUpload:  connect.NewClient[UploadRequest, Instance](httpClient, baseURL+ExecUploadProcedure, opt),
		execInput:   connect.NewClient[InputRequest, Instance](httpClient, baseURL+ExecInputProcedure, opt),
		execRun:     connect.NewClient[RunRequest, RunResponse](httpClient, baseURL+ExecRunProcedure, opt),
	}
}

// New allocates an instance. A memorySize of 0 uses the server default.
func (c *Client) New(ctx context.Context, memorySize int) (*Instance, error) {
	res, err := c.allocNew.CallUnary(ctx, connect.NewRequest(&NewRequest{MemorySize: memorySize}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Instance, error) {
	res, err := c.allocGet.CallUnary(ctx, connect.NewRequest(&GetRequest{ID: id}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.allocDelete.CallUnary(ctx, connect.NewRequest(&DeleteRequest{ID: id}))
	return err
}

func (c *Client) List(ctx context.Context) ([]*Instance, error) {
	res, err := c.allocList.CallUnary(ctx, connect.NewRequest(&ListRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg.Instances, nil
}

func (c *Client) Upload(ctx context.Context, id int64, source string) (*Instance, error) {
	res, err := c.execUpload.CallUnary(ctx, connect.NewRequest(&UploadRequest{ID: id, Source: source}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) Input(ctx context.Context, id int64, text string) (*Instance, error) {
	res, err := c.execInput.CallUnary(ctx, connect.NewRequest(&InputRequest{ID: id, Text: text}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Run executes the instance's program once within the server's budget.
func (c *Client) Run(ctx context.Context, id int64) (*RunResponse, error) {
	res, err := c.execRun.CallUnary(ctx, connect.NewRequest(&RunRequest{ID: id}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
