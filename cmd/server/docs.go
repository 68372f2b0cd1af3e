// Package main PassItOn Transaction Lifecycle API
//
//	@title						PassItOn Transaction Lifecycle API
//	@version					1.0
//	@description				Lifecycle of peer-to-peer campus rentals: handover, return, completion and disputes.
//
//	@contact.name				PassItOn Support
//
//	@license.name				Proprietary
//
//	@host						localhost:8080
//	@BasePath					/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"
//
//	@securityDefinitions.apikey	InternalKey
//	@in							header
//	@name						X-Internal-Key
//	@description				Shared key of the booking service for internal routes.
//
//	@tag.name					Transactions
//	@tag.description			Participant lifecycle operations
//
//	@tag.name					Internal
//	@tag.description			Booking service callbacks
package main
