package apperr

// Client-facing messages. The API has always answered in Spanish and the
// frontend matches on some of these strings, so keep them stable.
const (
	MsgInvalidJSON        = "Datos JSON inválidos"
	MsgValidation         = "Errores de validación"
	MsgInvalidCredentials = "Credenciales inválidas"
	MsgAccountDisabled    = "Cuenta desactivada. Contacte al administrador."
	MsgTokenRequired      = "Token de acceso requerido"
	MsgTokenInvalid       = "Token inválido o expirado"
	MsgUserInactive       = "Usuario no encontrado o inactivo"
	MsgAdminRequired      = "Acceso denegado. Se requieren permisos de administrador."
	MsgAccessDenied       = "Acceso denegado"
	MsgEmailTaken         = "El email ya está registrado"
	MsgUserNotFound       = "Usuario no encontrado"
	MsgProductNotFound    = "Producto no encontrado"
	MsgLastAdmin          = "No se puede eliminar el último administrador"
	MsgNothingToUpdate    = "No hay campos para actualizar"
	MsgInvalidID          = "ID inválido"
	MsgPasswordTooLong    = "La contraseña no puede superar 72 bytes"
	MsgValueOutOfRange    = "Valor fuera del rango permitido"
	MsgStoreUnavailable   = "Error de conexión a la base de datos"
	MsgInternal           = "Error interno del servidor"
	MsgTooManyRequests    = "Demasiadas solicitudes. Intente nuevamente en unos momentos."
	MsgUnsupportedMedia   = "Content-Type debe ser application/json"
)
