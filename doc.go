/*
Copyright (c) 2013-2018 The btcsuite developers
Copyright (c) 2015-2016 The Decred developers
Copyright (c) 2013-2014 Conformal Systems LLC.
Use of this source code is governed by an ISC
license that can be found in the LICENSE file.

Freicoind is the consensus core of a Freicoin full node written in Go. It
validates blocks, selects the chain with the most work and keeps the coin set
of the active chain on disk.

The default options are sane for most users. This means freicoind will work
'out of the box' for most users. However, there are also a wide variety of
flags that can be used to control it.

Usage:

	freicoind [OPTIONS]

Blocks enter through block files in the usual magic and size framed format:

	freicoind --loadblock=bootstrap.dat

For an up-to-date help message:

	freicoind --help

The long form of all option flags (except -C) can be specified in a
configuration file that is automatically parsed when freicoind starts up. By
default, the configuration file is located at ~/.freicoind/freicoind.conf on
POSIX-style operating systems and %LOCALAPPDATA%\Freicoind\freicoind.conf on
Windows. The -C (--configfile) flag can be used to override this location.
*/
package main
