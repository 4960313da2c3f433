// Package logger mantiene el zap.Logger global del servicio y su scoping
// por contexto.
//
// main llama Init una vez; el middleware HTTP inyecta un logger con
// request_id y account_id via ToContext; el resto del código hace
// logger.From(ctx) y loguea con los helpers de campos:
//
//	log := logger.From(ctx)
//	log.Info("email dispatched", logger.LogID(id), logger.Recipient(to))
//
// En "prod" la salida es JSON con stacktraces desde error; en cualquier
// otro env es consola con colores.
package logger
