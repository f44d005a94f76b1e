package blocklogger

import (
	"github.com/freicoin/freicoind/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CHAN")
