// Package api provides the HTTP REST API and WebSocket change feed for
// FieldMesh Core.
//
// Every entity collection is mounted under /api with the same five routes:
//
//	GET    /api/{collection}        200  JSON array
//	GET    /api/{collection}/{id}   200  object
//	POST   /api/{collection}        201  created object
//	PATCH  /api/{collection}/{id}   200  updated object
//	DELETE /api/{collection}/{id}   200  deleted object
//
// Collections: users, zones, devices, sensors, readings. Handlers hold no
// rules of their own; they decode, call the entity service and translate
// the returned error through integrity.StatusOf. Every failure is logged
// with the request id before the response is written.
//
// Successful mutations are fanned out as change events on the WebSocket hub
// (channel "<entity>.<action>") and, when MQTT is connected, on
// fieldmesh/core/event/<entity>/<action>.
//
// Also served: GET /api/health, GET /api/ws and GET /metrics (Prometheus).
package api
