package main

import (
	"fmt"

	"github.com/dairyroute/realtime-service/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
