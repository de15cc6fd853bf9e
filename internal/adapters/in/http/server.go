// Package http exposes the coordinator's REST and SSE surface.
// It coordinates between HTTP handlers and application use cases.
package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/adapters/in/realtime"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server wires the HTTP surface to the command and query handlers.
type Server struct {
	// Command handlers
	checkoutOrderHandler          commands.CheckoutOrderCommandHandler
	vendorResponseHandler         commands.VendorResponseCommandHandler
	courierResponseHandler        commands.CourierResponseCommandHandler
	courierProgressHandler        commands.CourierProgressCommandHandler
	cancelOrderHandler            commands.CancelOrderCommandHandler
	registerCourierHandler        commands.RegisterCourierCommandHandler
	setCourierAvailabilityHandler commands.SetCourierAvailabilityCommandHandler

	// Query handlers
	getActiveOrdersHandler      queries.GetActiveOrdersQueryHandler
	getOrderByNumberHandler     queries.GetOrderByNumberQueryHandler
	getVendorQueueHandler       queries.GetVendorQueueQueryHandler
	getAvailableCouriersHandler queries.GetAvailableCouriersQueryHandler

	// Push channels
	sse *realtime.SSEHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	checkoutOrderHandler commands.CheckoutOrderCommandHandler,
	vendorResponseHandler commands.VendorResponseCommandHandler,
	courierResponseHandler commands.CourierResponseCommandHandler,
	courierProgressHandler commands.CourierProgressCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	registerCourierHandler commands.RegisterCourierCommandHandler,
	setCourierAvailabilityHandler commands.SetCourierAvailabilityCommandHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
	getOrderByNumberHandler queries.GetOrderByNumberQueryHandler,
	getVendorQueueHandler queries.GetVendorQueueQueryHandler,
	getAvailableCouriersHandler queries.GetAvailableCouriersQueryHandler,
	sse *realtime.SSEHandler,
) *Server {
	return &Server{
		checkoutOrderHandler:          checkoutOrderHandler,
		vendorResponseHandler:         vendorResponseHandler,
		courierResponseHandler:        courierResponseHandler,
		courierProgressHandler:        courierProgressHandler,
		cancelOrderHandler:            cancelOrderHandler,
		registerCourierHandler:        registerCourierHandler,
		setCourierAvailabilityHandler: setCourierAvailabilityHandler,
		getActiveOrdersHandler:        getActiveOrdersHandler,
		getOrderByNumberHandler:       getOrderByNumberHandler,
		getVendorQueueHandler:         getVendorQueueHandler,
		getAvailableCouriersHandler:   getAvailableCouriersHandler,
		sse:                           sse,
	}
}

// RegisterRoutes attaches every endpoint to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/orders", s.CheckoutOrder)
	api.GET("/orders/active", s.GetActiveOrders)
	api.GET("/orders/number/:number", s.GetOrderByNumber)
	api.POST("/orders/:orderID/vendor-response", s.VendorResponse)
	api.POST("/orders/:orderID/courier-response", s.CourierResponse)
	api.POST("/orders/:orderID/delivered", s.ReportDelivered)
	api.POST("/orders/:orderID/cancel", s.CancelOrder)

	api.POST("/couriers", s.RegisterCourier)
	api.PUT("/couriers/:courierID/availability", s.SetCourierAvailability)
	api.GET("/couriers/available", s.GetAvailableCouriers)

	api.GET("/vendors/:vendorID/queue", s.GetVendorQueue)

	api.GET("/streams/vendors/:id", s.streamFor(ports.RoleVendor))
	api.GET("/streams/customers/:id", s.streamFor(ports.RoleCustomer))
	api.GET("/streams/couriers/:id", s.streamFor(ports.RoleCourier))
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type checkoutItemRequest struct {
	VendorID       string `json:"vendor_id"`
	Name           string `json:"name"`
	UnitPricePaise int64  `json:"unit_price_paise"`
	Quantity       int    `json:"quantity"`
}

type checkoutOrderRequest struct {
	CustomerID    string                `json:"customer_id"`
	DiscountPaise int64                 `json:"discount_paise"`
	Items         []checkoutItemRequest `json:"items"`
}

type checkoutOrderResponse struct {
	OrderID string `json:"order_id"`
}

// CheckoutOrder handles POST /api/v1/orders - places a confirmed basket.
func (s *Server) CheckoutOrder(ctx echo.Context) error {
	var req checkoutOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	customerID, err := kernel.UUIDFromString(req.CustomerID)
	if err != nil {
		return badRequest(ctx, "Invalid customer id")
	}

	discount, err := kernel.NewMoney(req.DiscountPaise)
	if err != nil {
		return badRequest(ctx, "Invalid discount: "+err.Error())
	}

	items := make([]commands.CheckoutItem, 0, len(req.Items))
	for _, line := range req.Items {
		vendorID, vendorErr := kernel.UUIDFromString(line.VendorID)
		if vendorErr != nil {
			return badRequest(ctx, "Invalid vendor id")
		}
		unitPrice, priceErr := kernel.NewMoney(line.UnitPricePaise)
		if priceErr != nil {
			return badRequest(ctx, "Invalid unit price: "+priceErr.Error())
		}
		items = append(items, commands.CheckoutItem{
			VendorID:  vendorID,
			Name:      line.Name,
			UnitPrice: unitPrice,
			Quantity:  line.Quantity,
		})
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCheckoutOrderCommand(orderID, customerID, items, discount)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	if err := s.checkoutOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, checkoutOrderResponse{OrderID: orderID.String()})
}

type vendorResponseRequest struct {
	VendorID         string `json:"vendor_id"`
	Accept           bool   `json:"accept"`
	StartImmediately bool   `json:"start_immediately"`
}

// VendorResponse handles POST /api/v1/orders/:orderID/vendor-response.
func (s *Server) VendorResponse(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderID")
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var req vendorResponseRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	vendorID, err := kernel.UUIDFromString(req.VendorID)
	if err != nil {
		return badRequest(ctx, "Invalid vendor id")
	}

	cmd, err := commands.NewVendorResponseCommand(orderID, vendorID, req.Accept, req.StartImmediately)
	if err != nil {
		return badRequest(ctx, "Invalid vendor response: "+err.Error())
	}

	if err := s.vendorResponseHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type courierResponseRequest struct {
	CourierID string `json:"courier_id"`
	Accept    bool   `json:"accept"`
}

// CourierResponse handles POST /api/v1/orders/:orderID/courier-response.
// An acceptance that lost the race returns 409; the offer is void.
func (s *Server) CourierResponse(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderID")
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var req courierResponseRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	courierID, err := kernel.UUIDFromString(req.CourierID)
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}

	cmd, err := commands.NewCourierResponseCommand(orderID, courierID, req.Accept)
	if err != nil {
		return badRequest(ctx, "Invalid courier response: "+err.Error())
	}

	if err := s.courierResponseHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type deliveredRequest struct {
	CourierID string `json:"courier_id"`
}

// ReportDelivered handles POST /api/v1/orders/:orderID/delivered.
func (s *Server) ReportDelivered(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderID")
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var req deliveredRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	courierID, err := kernel.UUIDFromString(req.CourierID)
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}

	cmd, err := commands.NewCourierProgressCommand(orderID, courierID)
	if err != nil {
		return badRequest(ctx, "Invalid delivery report: "+err.Error())
	}

	if err := s.courierProgressHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder handles POST /api/v1/orders/:orderID/cancel - admin override.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderID")
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var req cancelOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, req.Reason)
	if err != nil {
		return badRequest(ctx, "Invalid cancellation: "+err.Error())
	}

	if err := s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type registerCourierRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type registerCourierResponse struct {
	CourierID string `json:"courier_id"`
}

// RegisterCourier handles POST /api/v1/couriers - registers a new courier.
func (s *Server) RegisterCourier(ctx echo.Context) error {
	var req registerCourierRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	courierID := kernel.NewUUID()
	cmd, err := commands.NewRegisterCourierCommand(courierID, req.Name, req.Phone)
	if err != nil {
		return badRequest(ctx, "Invalid courier data: "+err.Error())
	}

	if err := s.registerCourierHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, registerCourierResponse{CourierID: courierID.String()})
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

// SetCourierAvailability handles PUT /api/v1/couriers/:courierID/availability.
func (s *Server) SetCourierAvailability(ctx echo.Context) error {
	courierID, err := pathUUID(ctx, "courierID")
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}

	var req availabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewSetCourierAvailabilityCommand(courierID, req.Available)
	if err != nil {
		return badRequest(ctx, "Invalid availability: "+err.Error())
	}

	if err := s.setCourierAvailabilityHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

type activeOrderResponse struct {
	OrderID    string `json:"order_id"`
	Number     string `json:"number"`
	CustomerID string `json:"customer_id"`
	CourierID  string `json:"courier_id,omitempty"`
	Status     string `json:"status"`
	TotalPaise int64  `json:"total_paise"`
	PlacedAt   string `json:"placed_at"`
}

// GetActiveOrders handles GET /api/v1/orders/active.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	query := queries.NewGetActiveOrdersQuery()

	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]activeOrderResponse, len(orders))
	for i, o := range orders {
		item := activeOrderResponse{
			OrderID:    o.ID.String(),
			Number:     o.Number,
			CustomerID: o.CustomerID.String(),
			Status:     o.Status,
			TotalPaise: o.Total.Paise(),
			PlacedAt:   o.PlacedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if o.CourierID != nil {
			item.CourierID = o.CourierID.String()
		}
		response[i] = item
	}

	return ctx.JSON(http.StatusOK, response)
}

type orderTimelineEntryResponse struct {
	Status string `json:"status"`
	At     string `json:"at"`
}

type orderByNumberResponse struct {
	OrderID    string                       `json:"order_id"`
	Number     string                       `json:"number"`
	CustomerID string                       `json:"customer_id"`
	CourierID  string                       `json:"courier_id,omitempty"`
	Status     string                       `json:"status"`
	TotalPaise int64                        `json:"total_paise"`
	Timeline   []orderTimelineEntryResponse `json:"timeline"`
}

// GetOrderByNumber handles GET /api/v1/orders/number/:number - the tracking
// view customers reach with the number from their receipt.
func (s *Server) GetOrderByNumber(ctx echo.Context) error {
	query, err := queries.NewGetOrderByNumberQuery(ctx.Param("number"))
	if err != nil {
		return badRequest(ctx, "Invalid order number")
	}

	view, err := s.getOrderByNumberHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := orderByNumberResponse{
		OrderID:    view.OrderID.String(),
		Number:     view.Number,
		CustomerID: view.CustomerID.String(),
		Status:     view.Status,
		TotalPaise: view.Total.Paise(),
		Timeline:   make([]orderTimelineEntryResponse, 0, len(view.Timeline)),
	}
	if view.CourierID != nil {
		response.CourierID = view.CourierID.String()
	}
	for _, entry := range view.Timeline {
		response.Timeline = append(response.Timeline, orderTimelineEntryResponse{
			Status: entry.Status,
			At:     entry.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return ctx.JSON(http.StatusOK, response)
}

type vendorQueueItemResponse struct {
	Name           string `json:"name"`
	UnitPricePaise int64  `json:"unit_price_paise"`
	Quantity       int    `json:"quantity"`
}

type vendorQueueEntryResponse struct {
	OrderID   string                    `json:"order_id"`
	Number    string                    `json:"number"`
	RespondBy string                    `json:"respond_by,omitempty"`
	Items     []vendorQueueItemResponse `json:"items"`
}

// GetVendorQueue handles GET /api/v1/vendors/:vendorID/queue - the orders
// still awaiting this vendor's response, with only its own lines.
func (s *Server) GetVendorQueue(ctx echo.Context) error {
	vendorID, err := pathUUID(ctx, "vendorID")
	if err != nil {
		return badRequest(ctx, "Invalid vendor id")
	}

	query, err := queries.NewGetVendorQueueQuery(vendorID)
	if err != nil {
		return badRequest(ctx, "Invalid vendor id")
	}

	queue, err := s.getVendorQueueHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]vendorQueueEntryResponse, len(queue))
	for i, entry := range queue {
		items := make([]vendorQueueItemResponse, len(entry.Items))
		for j, item := range entry.Items {
			items[j] = vendorQueueItemResponse{
				Name:           item.Name,
				UnitPricePaise: item.UnitPrice.Paise(),
				Quantity:       item.Quantity,
			}
		}
		response[i] = vendorQueueEntryResponse{
			OrderID: entry.OrderID.String(),
			Number:  entry.Number,
			Items:   items,
		}
		if entry.RespondBy != nil {
			response[i].RespondBy = entry.RespondBy.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

type availableCourierResponse struct {
	CourierID string `json:"courier_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

// GetAvailableCouriers handles GET /api/v1/couriers/available.
func (s *Server) GetAvailableCouriers(ctx echo.Context) error {
	query := queries.NewGetAvailableCouriersQuery()

	couriers, err := s.getAvailableCouriersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]availableCourierResponse, len(couriers))
	for i, c := range couriers {
		response[i] = availableCourierResponse{
			CourierID: c.ID.String(),
			Name:      c.Name,
			Phone:     c.Phone,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// streamFor returns the SSE endpoint handler for one participant role.
func (s *Server) streamFor(role ports.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := pathUUID(ctx, "id")
		if err != nil {
			return badRequest(ctx, "Invalid participant id")
		}
		return s.sse.Stream(ctx, role, id)
	}
}

func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	return kernel.UUIDFromString(ctx.Param(name))
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, errorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// writeError maps domain error classes onto HTTP statuses: unknown ids are
// 404, lost races and duplicate reports are 409, bad values are 400.
func writeError(ctx echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrAlreadyResolved):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrValueIsInvalid), errors.Is(err, errs.ErrValueIsRequired):
		status = http.StatusBadRequest
	}

	return ctx.JSON(status, errorResponse{
		Code:    status,
		Message: err.Error(),
	})
}
