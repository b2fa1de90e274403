// Package influxdb mirrors FieldMesh sensor readings into InfluxDB v2.
//
// The entity store remains the system of record. Every reading created
// through the reading service is also written here, tagged with the sensor
// id, type and unit, so dashboards can query series without touching the
// REST API.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	readings.SetRecorder(client)
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Async write failures are reported through SetOnError.
package influxdb
