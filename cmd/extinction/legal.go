// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package main

import nl "github.com/mlnoga/extinction/internal"

// Show licensing information
func cmdLegal() {
	nl.LogPrint(legal)
}

const legal = `Extinction is Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Empirical extinction and reddening coefficients as published by Zhang, Ruoyi (2023).

The binary version of this program uses several open source libraries and components, which come with their own licensing terms:

| Library                                                                                        | License type                            | Usage    |
|------------------------------------------------------------------------------------------------|-----------------------------------------|----------|
| [github.com/gin-gonic/gin](https://github.com/gin-gonic/gin)                                   | MIT License                             |          |
| [github.com/goccy/go-yaml](https://github.com/goccy/go-yaml)                                   | MIT License                             |          |
| [github.com/kelseyhightower/envconfig](https://github.com/kelseyhightower/envconfig)           | MIT License                             |          |
| [github.com/pbnjay/memory](https://github.com/pbnjay/memory)                                   | BSD 3-Clause "New" or "Revised" License |          |
| [github.com/prometheus/client_golang](https://github.com/prometheus/client_golang)             | Apache 2.0 License                      |          |
| [github.com/go-playground/validator/](https://github.com/go-playground/validator/)             | MIT License                             | indirect |
| [github.com/json-iterator/go](https://github.com/json-iterator/go)                             | MIT License                             | indirect |
| [github.com/mattn/go-isatty](https://github.com/mattn/go-isatty)                               | MIT License                             | indirect |
| [github.com/modern-go/concurrent](https://github.com/modern-go/concurrent)                     | Apache 2.0 License                      | indirect |
| [github.com/ugorji/go](https://github.com/ugorji/go)                                           | MIT License                             | indirect |
| [golang.org/x/sys](https://golang.org/x/sys)                                                   | BSD 3-Clause                            | indirect |
| [golang.org/x/text](https://golang.org/x/text)                                                 | BSD 3-Clause                            | indirect |
| [gonum.org/v1/gonum](https://gonum.org/v1/gonum)                                               | BSD 3-Clause "New" or "Revised" License |          |
| [google.golang.org/protobuf](https://google.golang.org/protobuf)                               | BSD 3-Clause                            | indirect |
`
