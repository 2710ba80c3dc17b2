// Package binder populates request structs from HTTP requests.
//
// JSON reads one application/json value, strict by default:
//
//	r.Post("/events", handler.Wrap(intake, handler.WithBinders(binder.JSON())))
//
// Binders return ErrBinderNotApplicable when a request carries nothing for
// them, so several can be chained.
package binder
