// Package mqtt provides the MQTT client for FieldMesh Core.
//
// MQTT is optional. When enabled, Core publishes every entity change event
// to fieldmesh/core/event/{entity}/{action} and, through the ingest package,
// accepts sensor readings from field gateways on
// fieldmesh/ingest/reading/{sensor_id}.
//
//	Field gateways → MQTT Broker → Core → SQLite
//	                               Core → MQTT Broker → dashboards
//
// The client reconnects with exponential backoff, restores subscriptions
// after a reconnect and keeps a retained online/offline status on
// fieldmesh/system/status (the offline value is also registered as LWT).
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if errors.Is(err, mqtt.ErrDisabled) {
//	    // run without the bus
//	}
//	defer client.Close()
//
//	err = client.PublishEvent("device", "created", dev)
package mqtt
