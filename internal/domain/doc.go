// Package domain models simulated weather-station sensors and the rules derived
// from their readings.
//
// # Sensor Records
//
// A record has a stable id, a display name, a fixed location and one mutable
// block of readings. The id set is fixed when the store is built from
// [SeedSensors]; nothing creates or deletes sensors afterwards.
//
// Units and bounds (enforced by [Readings.Normalize] on every mutation):
//
//	temperature     °C       clamped to [0, 50]
//	humidity        %        clamped to [0, 100]
//	pressure        hPa      clamped to [980, 1040]
//	wind speed      km/h     clamped to [0, 100]
//	wind direction  degrees  wrapped into [0, 360), never clamped
//
// LastUpdated changes on every mutation and only then. [NextTimestamp] keeps
// it strictly increasing even when the clock has not advanced.
//
// # Alert Classification
//
// [ClassifyAlert] is the single alert table used by every consumer:
//
//	temperature > 35 °C or wind > 80 km/h  Critical   red     #ef4444
//	temperature > 30 °C or wind > 50 km/h  Attention  orange  #f59e0b
//	otherwise                              Normal     green   #10b981
//
// # Derived Views
//
// Wind direction is labelled with a 16-point compass ([CardinalDirection]) and
// aggregated into an 8-point rose ([WindRose]). Relative humidity maps to a
// comfort band ([ComfortFor]): <30 dry, <60 comfortable, <80 humid, else very humid.
//
// # Forecast
//
// Forecast types are provider-neutral. Weather codes follow the WMO
// interpretation table used by Open-Meteo; see [ConditionFor].
package domain
