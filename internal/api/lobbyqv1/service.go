package lobbyqv1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// Fully-qualified service names.
const (
	QueueServiceName  = "lobbyq.v1.QueueService"
	PlayerServiceName = "lobbyq.v1.PlayerService"
	AdminServiceName  = "lobbyq.v1.AdminService"
)

// Procedure paths.
const (
	QueueServiceJoinProcedure          = "/lobbyq.v1.QueueService/Join"
	QueueServiceLeaveProcedure         = "/lobbyq.v1.QueueService/Leave"
	QueueServicePositionProcedure      = "/lobbyq.v1.QueueService/Position"
	PlayerServiceLoginProcedure        = "/lobbyq.v1.PlayerService/Login"
	PlayerServiceSwitchServerProcedure = "/lobbyq.v1.PlayerService/SwitchServer"
	PlayerServiceLogoutProcedure       = "/lobbyq.v1.PlayerService/Logout"
	AdminServiceStatusProcedure        = "/lobbyq.v1.AdminService/Status"
	AdminServicePauseProcedure         = "/lobbyq.v1.AdminService/Pause"
	AdminServiceUnpauseProcedure       = "/lobbyq.v1.AdminService/Unpause"
)

// QueueServiceHandler is implemented by the queue service.
type QueueServiceHandler interface {
	Join(context.Context, *connect.Request[JoinRequest]) (*connect.Response[JoinResponse], error)
	Leave(context.Context, *connect.Request[LeaveRequest]) (*connect.Response[LeaveResponse], error)
	Position(context.Context, *connect.Request[PositionRequest]) (*connect.Response[PositionResponse], error)
}

// PlayerServiceHandler is implemented by the player service.
type PlayerServiceHandler interface {
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	SwitchServer(context.Context, *connect.Request[SwitchServerRequest]) (*connect.Response[SwitchServerResponse], error)
	Logout(context.Context, *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error)
}

// AdminServiceHandler is implemented by the admin service.
type AdminServiceHandler interface {
	Status(context.Context, *connect.Request[StatusRequest]) (*connect.Response[StatusResponse], error)
	Pause(context.Context, *connect.Request[PauseRequest]) (*connect.Response[PauseResponse], error)
	Unpause(context.Context, *connect.Request[PauseRequest]) (*connect.Response[PauseResponse], error)
}

// withCodec puts the JSON codec ahead of caller options.
func withCodec[T any](codec T, opts []T) []T {
	return append([]T{codec}, opts...)
}

// route serves each procedure path with its handler.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// NewQueueServiceHandler builds an HTTP handler for the queue service and returns the path to mount it on.
func NewQueueServiceHandler(svc QueueServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec[connect.HandlerOption](connect.WithCodec(Codec{}), opts)
	return "/" + QueueServiceName + "/", route(map[string]http.Handler{
		QueueServiceJoinProcedure:     connect.NewUnaryHandler(QueueServiceJoinProcedure, svc.Join, opts...),
		QueueServiceLeaveProcedure:    connect.NewUnaryHandler(QueueServiceLeaveProcedure, svc.Leave, opts...),
		QueueServicePositionProcedure: connect.NewUnaryHandler(QueueServicePositionProcedure, svc.Position, opts...),
	})
}

// NewPlayerServiceHandler builds an HTTP handler for the player service and returns the path to mount it on.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec[connect.HandlerOption](connect.WithCodec(Codec{}), opts)
	return "/" + PlayerServiceName + "/", route(map[string]http.Handler{
		PlayerServiceLoginProcedure:        connect.NewUnaryHandler(PlayerServiceLoginProcedure, svc.Login, opts...),
		PlayerServiceSwitchServerProcedure: connect.NewUnaryHandler(PlayerServiceSwitchServerProcedure, svc.SwitchServer, opts...),
		PlayerServiceLogoutProcedure:       connect.NewUnaryHandler(PlayerServiceLogoutProcedure, svc.Logout, opts...),
	})
}

// NewAdminServiceHandler builds an HTTP handler for the admin service and returns the path to mount it on.
func NewAdminServiceHandler(svc AdminServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withCodec[connect.HandlerOption](connect.WithCodec(Codec{}), opts)
	return "/" + AdminServiceName + "/", route(map[string]http.Handler{
		AdminServiceStatusProcedure:  connect.NewUnaryHandler(AdminServiceStatusProcedure, svc.Status, opts...),
		AdminServicePauseProcedure:   connect.NewUnaryHandler(AdminServicePauseProcedure, svc.Pause, opts...),
		AdminServiceUnpauseProcedure: connect.NewUnaryHandler(AdminServiceUnpauseProcedure, svc.Unpause, opts...),
	})
}

// QueueServiceClient calls the queue service.
type QueueServiceClient struct {
	join     *connect.Client[JoinRequest, JoinResponse]
	leave    *connect.Client[LeaveRequest, LeaveResponse]
	position *connect.Client[PositionRequest, PositionResponse]
}

// NewQueueServiceClient creates a queue service client for baseURL (e.g. http://localhost:8080).
func NewQueueServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *QueueServiceClient {
	opts = withCodec[connect.ClientOption](connect.WithCodec(Codec{}), opts)
	return &QueueServiceClient{
		join:     connect.NewClient[JoinRequest, JoinResponse](httpClient, baseURL+QueueServiceJoinProcedure, opts...),
		leave:    connect.NewClient[LeaveRequest, LeaveResponse](httpClient, baseURL+QueueServiceLeaveProcedure, opts...),
		position: connect.NewClient[PositionRequest, PositionResponse](httpClient, baseURL+QueueServicePositionProcedure, opts...),
	}
}

// Join calls lobbyq.v1.QueueService.Join.
func (c *QueueServiceClient) Join(ctx context.Context, req *connect.Request[JoinRequest]) (*connect.Response[JoinResponse], error) {
	return c.join.CallUnary(ctx, req)
}

// Leave calls lobbyq.v1.QueueService.Leave.
func (c *QueueServiceClient) Leave(ctx context.Context, req *connect.Request[LeaveRequest]) (*connect.Response[LeaveResponse], error) {
	return c.leave.CallUnary(ctx, req)
}

// Position calls lobbyq.v1.QueueService.Position.
func (c *QueueServiceClient) Position(ctx context.Context, req *connect.Request[PositionRequest]) (*connect.Response[PositionResponse], error) {
	return c.position.CallUnary(ctx, req)
}

// PlayerServiceClient calls the player service.
type PlayerServiceClient struct {
	login        *connect.Client[LoginRequest, LoginResponse]
	switchServer *connect.Client[SwitchServerRequest, SwitchServerResponse]
	logout       *connect.Client[LogoutRequest, LogoutResponse]
}

// NewPlayerServiceClient creates a player service client for baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	opts = withCodec[connect.ClientOption](connect.WithCodec(Codec{}), opts)
	return &PlayerServiceClient{
		login:        connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+PlayerServiceLoginProcedure, opts...),
		switchServer: connect.NewClient[SwitchServerRequest, SwitchServerResponse](httpClient, baseURL+PlayerServiceSwitchServerProcedure, opts...),
		logout:       connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseURL+PlayerServiceLogoutProcedure, opts...),
	}
}

// Login calls lobbyq.v1.PlayerService.Login.
func (c *PlayerServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

// SwitchServer calls lobbyq.v1.PlayerService.SwitchServer.
func (c *PlayerServiceClient) SwitchServer(ctx context.Context, req *connect.Request[SwitchServerRequest]) (*connect.Response[SwitchServerResponse], error) {
	return c.switchServer.CallUnary(ctx, req)
}

// Logout calls lobbyq.v1.PlayerService.Logout.
func (c *PlayerServiceClient) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	return c.logout.CallUnary(ctx, req)
}

// AdminServiceClient calls the admin service.
type AdminServiceClient struct {
	status  *connect.Client[StatusRequest, StatusResponse]
	pause   *connect.Client[PauseRequest, PauseResponse]
	unpause *connect.Client[PauseRequest, PauseResponse]
}

// NewAdminServiceClient creates an admin service client for baseURL.
func NewAdminServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdminServiceClient {
	opts = withCodec[connect.ClientOption](connect.WithCodec(Codec{}), opts)
	return &AdminServiceClient{
		status:  connect.NewClient[StatusRequest, StatusResponse](httpClient, baseURL+AdminServiceStatusProcedure, opts...),
		pause:   connect.NewClient[PauseRequest, PauseResponse](httpClient, baseURL+AdminServicePauseProcedure, opts...),
		unpause: connect.NewClient[PauseRequest, PauseResponse](httpClient, baseURL+AdminServiceUnpauseProcedure, opts...),
	}
}

// Status calls lobbyq.v1.AdminService.Status.
func (c *AdminServiceClient) Status(ctx context.Context, req *connect.Request[StatusRequest]) (*connect.Response[StatusResponse], error) {
	return c.status.CallUnary(ctx, req)
}

// Pause calls lobbyq.v1.AdminService.Pause.
func (c *AdminServiceClient) Pause(ctx context.Context, req *connect.Request[PauseRequest]) (*connect.Response[PauseResponse], error) {
	return c.pause.CallUnary(ctx, req)
}

// Unpause calls lobbyq.v1.AdminService.Unpause.
func (c *AdminServiceClient) Unpause(ctx context.Context, req *connect.Request[PauseRequest]) (*connect.Response[PauseResponse], error) {
	return c.unpause.CallUnary(ctx, req)
}
