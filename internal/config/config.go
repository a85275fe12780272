package config

import (
	"encoding/json"
	"errors"
	"os"
)

type Config struct {
	Database struct {
		Host               string `json:"host"`
		Port               uint64 `json:"port"`
		Username           string `json:"username"`
		Password           string `json:"password"`
		Database           string `json:"database"`
		UseTLS             bool   `json:"use_tls"`
		ConnectTimeout     string `json:"connect_timeout"`
		SocketTimeout      string `json:"socket_timeout"`
		ConnectIdleTimeout string `json:"connect_idle_timeout"`
		OperationTimeout   string `json:"operation_timeout"`
		Heartbeat          string `json:"heartbeat"`
		MinPoolSize        uint64 `json:"min_pool_size"`
		MaxPoolSize        uint64 `json:"max_pool_size"`
	} `json:"database"`
	Central struct {
		Address    string `json:"address"`
		Port       int    `json:"port"`
		ConnectKey string `json:"connect_key"`
	} `json:"central"`
	Server struct {
		MachineAddress string `json:"machine_address"`
		AppPort        int    `json:"app_port"`
		ConnectKey     string `json:"connect_key"`
		MapName        string `json:"map_name"`
	} `json:"server"`
	Game struct {
		AutoSaveDuration string `json:"auto_save_duration"`
		MaxPartyMember   int    `json:"max_party_member"`
	} `json:"game"`
	DebugMode bool   `json:"debug_mode"`
	AppName   string `json:"app_name"`
}

var config Config
var initialized = false

func ReadConfig() (Config, error) {
	bytes, err := os.ReadFile("config.json")

	if err != nil {
		writer, _ := os.OpenFile("config.json", os.O_RDONLY|os.O_CREATE, 0777)
		data, _ := json.MarshalIndent(config, "", "\t")
		_, _ = writer.Write(data)
		_ = writer.Close()
		return config, errors.New("the configuration file does not exist and has been created. Please try again after editing the configuration file")
	}

	err = json.Unmarshal(bytes, &config)

	if err != nil {
		return config, errors.New("the configuration file does not contain valid JSON")
	}

	if config.Game.MaxPartyMember <= 0 {
		config.Game.MaxPartyMember = 8
	}
	if config.Game.AutoSaveDuration == "" {
		config.Game.AutoSaveDuration = "2s"
	}

	initialized = true
	return config, nil
}

func GetConfig() (Config, error) {
	if initialized {
		return config, nil
	}
	return ReadConfig()
}
