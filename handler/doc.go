// Package handler turns typed request handlers into http.HandlerFunc.
//
// A handler receives a Context and a request value populated by binders and
// returns a Response:
//
//	type createReq struct {
//		Name string `json:"name"`
//	}
//
//	h := func(ctx handler.Context, req createReq) handler.Response {
//		if req.Name == "" {
//			v := handler.ValidationError{}
//			v.Add("name", "required")
//			return handler.JSONError(v)
//		}
//		return handler.JSON(req, handler.WithStatus(http.StatusCreated))
//	}
//
//	r.Post("/things", handler.Wrap(h, handler.WithBinders(binder.JSON())))
//
// Every JSON body is an Envelope with data, meta and error fields.
// Binding and rendering errors go to the ErrorHandler; NewErrorHandler logs
// them with the request id and answers with a JSON error envelope.
package handler
