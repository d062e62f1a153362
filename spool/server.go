package spool

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/imagvfx/cook/service"
)

// Server receives spooled jobs and keeps them in a database.
type Server struct {
	services service.Services
	logger   *slog.Logger
}

// NewServer creates a new Server.
func NewServer(services service.Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{services: services, logger: logger}
}

// Spool implements FarmServer.
func (s *Server) Spool(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	j, err := jobFromStruct(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid job: %v", err)
	}
	err = j.Validate()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid job: %v", err)
	}
	sj, err := serviceJob(j)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "%v", err)
	}
	ord, err := s.services.JobService().AddJob(sj)
	if err != nil {
		s.logger.Error("add job", "id", sj.ID, "err", err)
		return nil, status.Errorf(codes.Internal, "add job: %v", err)
	}
	s.logger.Info("job spooled", "order", ord, "id", sj.ID, "title", sj.Title, "tasks", len(sj.Tasks))
	return toStruct(Receipt{Order: ord, ID: sj.ID})
}

// Jobs implements FarmServer.
func (s *Server) Jobs(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f := JobFilter{}
	err := fromStruct(in, &f)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid filter: %v", err)
	}
	jobs, err := s.services.JobService().FindJobs(service.JobFilter{
		Order:  f.Order,
		ID:     f.ID,
		Owner:  f.Owner,
		After:  f.After,
		Paused: f.Paused,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "find jobs: %v", err)
	}
	reply := jobsReply{Jobs: make([]JobInfo, 0, len(jobs))}
	for _, j := range jobs {
		reply.Jobs = append(reply.Jobs, jobInfo(j))
	}
	return toStruct(reply)
}

// Pause implements FarmServer.
func (s *Server) Pause(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := pauseRequest{}
	err := fromStruct(in, &req)
	if err != nil || req.Order <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid pause request: %v", in)
	}
	err = s.services.JobService().UpdateJob(service.JobUpdater{
		Order:        req.Order,
		UpdatePaused: true,
		Paused:       req.Paused,
	})
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "pause job %v: %v", req.Order, err)
	}
	s.logger.Info("job paused", "order", req.Order, "paused", req.Paused)
	return &structpb.Struct{}, nil
}
