// Package spool sends compiled jobs to the farm.
package spool

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/imagvfx/cook/alfred"
	"github.com/imagvfx/cook/farm"
)

// Receipt is what the farm answers for a spooled job.
type Receipt struct {
	// Order is the job's order in the farm. It is 0 for a dry run.
	Order int    `json:"order"`
	ID    string `json:"id"`
}

// Spooler sends a job to somewhere.
type Spooler interface {
	Spool(ctx context.Context, j *farm.Job) (Receipt, error)
}

// prepare validates and initializes a job before it is spooled.
func prepare(j *farm.Job) error {
	if j == nil {
		return fmt.Errorf("nil job")
	}
	err := j.Validate()
	if err != nil {
		return err
	}
	j.Init()
	return nil
}

// DryRun writes the job script to W instead of sending the job.
type DryRun struct {
	W io.Writer
}

// Spool implements Spooler.
func (d DryRun) Spool(ctx context.Context, j *farm.Job) (Receipt, error) {
	err := prepare(j)
	if err != nil {
		return Receipt{}, fmt.Errorf("spool: %w", err)
	}
	err = alfred.EncodeJob(d.W, j)
	if err != nil {
		return Receipt{}, fmt.Errorf("spool: %w", err)
	}
	return Receipt{ID: string(j.ID)}, nil
}

// Client is a client of a farm server.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// NewClient creates a new Client with a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial creates a new Client connecting to a farm server at addr.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Client{cc: conn, conn: conn}, nil
}

// Close closes the connection, if the client made it.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Spool implements Spooler.
func (c *Client) Spool(ctx context.Context, j *farm.Job) (Receipt, error) {
	err := prepare(j)
	if err != nil {
		return Receipt{}, fmt.Errorf("spool: %w", err)
	}
	in, err := jobToStruct(j)
	if err != nil {
		return Receipt{}, fmt.Errorf("spool: %w", err)
	}
	out := new(structpb.Struct)
	err = c.cc.Invoke(ctx, spoolMethod, in, out)
	if err != nil {
		return Receipt{}, fmt.Errorf("spool: %w", err)
	}
	r := Receipt{}
	err = fromStruct(out, &r)
	if err != nil {
		return Receipt{}, fmt.Errorf("spool: %w", err)
	}
	return r, nil
}

// JobFilter filters spooled jobs. Zero values match all.
type JobFilter struct {
	Order  int    `json:"order,omitempty"`
	ID     string `json:"id,omitempty"`
	Owner  string `json:"owner,omitempty"`
	After  int    `json:"after,omitempty"`
	Paused *bool  `json:"paused,omitempty"`
}

type jobsReply struct {
	Jobs []JobInfo `json:"jobs"`
}

// Jobs finds spooled jobs.
func (c *Client) Jobs(ctx context.Context, f JobFilter) ([]JobInfo, error) {
	in, err := toStruct(f)
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}
	out := new(structpb.Struct)
	err = c.cc.Invoke(ctx, jobsMethod, in, out)
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}
	reply := jobsReply{}
	err = fromStruct(out, &reply)
	if err != nil {
		return nil, fmt.Errorf("jobs: %w", err)
	}
	return reply.Jobs, nil
}

type pauseRequest struct {
	Order  int  `json:"order"`
	Paused bool `json:"paused"`
}

// Pause pauses or resumes a spooled job.
func (c *Client) Pause(ctx context.Context, order int, paused bool) error {
	in, err := toStruct(pauseRequest{Order: order, Paused: paused})
	if err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	err = c.cc.Invoke(ctx, pauseMethod, in, new(structpb.Struct))
	if err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}
