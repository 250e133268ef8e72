// Package integration contains the legacy sync bounded context.
// It pulls master data from the Odoo instance the company ran before.
//
// Key concepts:
//   - LegacySource: port for reading categories, tax classifications and partners
//   - ExternalMapping: entity linking a legacy record id to the local aggregate
//   - SyncResult: value object summarizing one sync run per model
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
