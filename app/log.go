package app

import (
	"github.com/freicoin/freicoind/infrastructure/logger"
)

var log = logger.RegisterSubSystem("FRCD")
