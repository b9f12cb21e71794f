package vision

// Бэкенды обработки изображения. DefaultBackend зависит от тега сборки gocv.
const (
	BackendNative = "native"
	BackendGoCV   = "gocv"
)
