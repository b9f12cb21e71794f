package controller

import "log"

// Logf логгер фоновых горутин пакета; тесты могут заменить его
var Logf = log.Printf
