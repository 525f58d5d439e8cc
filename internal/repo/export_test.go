package repo

var MapPgError = mapPgError
