package messages

import "golang.org/x/text/language"

var catalog = map[language.Tag]map[Key]string{
	language.English: {
		SubscribePrompt: "❌ To use the bot, you need to subscribe to the channel:\n👉 {channel}\n\nAfter subscribing, press /start",
		StartWelcome: "🎬 Hi! I'll help you create a GIF from a YouTube video.\n\n" +
			"📋 How to use:\n" +
			"1. Send me a link to a YouTube video\n" +
			"2. I'll show you information about the video\n" +
			"3. Choose the start and end times for the GIF\n" +
			"4. Maximum duration: {max_duration} seconds\n\n" +
			"🔗 Just send the video link!",
		Help: "Send a YouTube link, adjust the range with the buttons, then press Done.\n\n" +
			"Times accept HH:MM:SS, MM:SS or plain seconds.\n" +
			"/cancel drops the current video.",
		PromptStart:            "⏰ Enter the start time in HH:MM:SS format (e.g., 00:00:05):",
		PromptEnd:              "⏰ Enter the end time in HH:MM:SS format (e.g., 00:00:16):",
		PromptDuration:         "⏱️ Enter the desired duration in seconds (max: {max_duration}):",
		StartSet:               "✅ Start time set!",
		EndSet:                 "✅ End time set!",
		DurationSet:            "✅ Duration set!",
		GettingInfo:            "⏳ Getting video info...",
		VideoCaption:           "📹 {title}\n⏱ Duration: {duration}\n\nSelect the time range for the GIF:",
		VideoTitleDefault:      "Untitled",
		CreatingGIF:            "🎬 Creating GIF...\n📍 Start: {start_time}\n🏁 End: {end_time}\n\n⏳ This may take some time...",
		GIFReady:               "✅ GIF is ready!\n📹 {title}",
		SettingsTitle:          "⚙️ GIF settings\n🎞 FPS: {fps}\n📐 Width: {width}px\n🎨 Colors: {colors}",
		ButtonStart:            "📍 Start: {time}",
		ButtonEnd:              "🏁 End: {time}",
		ButtonDuration:         "⏱️ Duration: {seconds}s",
		ButtonSettings:         "⚙️ Settings",
		ButtonFrameRate:        "🎞 FPS: {value}",
		ButtonWidth:            "📐 Width: {value}px",
		ButtonPalette:          "🎨 Colors: {value}",
		ButtonSelected:         "✅ {value}",
		ButtonBack:             "⬅️ Back",
		ButtonDone:             "✅ Done",
		ButtonCancel:           "❌ Cancel",
		ErrorInvalidURL:        "❌ Please send a valid YouTube video link",
		ErrorGettingInfo:       "❌ Error getting video information.",
		ErrorTimeFormat:        "❌ Invalid time format. Use HH:MM:SS",
		ErrorDurationFormat:    "❌ Invalid duration. Please enter a number.",
		ErrorStartTooLate:      "❌ Start time cannot be greater than video duration",
		ErrorEndTooLate:        "❌ End time cannot be greater than video duration",
		ErrorEndBeforeStart:    "❌ End time must be after the start time",
		ErrorDurationTooLong:   "❌ Maximum GIF duration: {max_duration} seconds",
		ErrorDurationPastVideo: "❌ The resulting duration extends beyond the end of the video.",
		ErrorCreatingGIF:       "❌ An error occurred while creating the GIF.",
		ErrorBusy:              "⏳ Your GIF is still being created. Please wait for it to finish.",
		SessionIdleClosed:      "⌛ The video was closed after a period of inactivity. Send the link again to continue.",
		Cancelled:              "❌ Cancelled",
		AlertSessionExpired:    "❌ Session expired. Please send the link again.",
		AlertCancelled:         "❌ Cancelled",
		AlertEndBeforeStart:    "❌ End time must be after the start time!",
		AlertDurationTooLong:   "❌ Maximum duration: {max_duration} seconds!",
		AlertBusy:              "⏳ Already creating your GIF",
		AlertNotSubscribed:     "❌ Subscribe to {channel} first",
	},
	language.Russian: {
		SubscribePrompt: "❌ Для использования бота необходимо подписаться на канал:\n👉 {channel}\n\nПосле подписки нажмите /start",
		StartWelcome: "🎬 Привет! Я помогу тебе создать GIF из YouTube видео.\n\n" +
			"📋 Как использовать:\n" +
			"1. Отправь мне ссылку на YouTube видео\n" +
			"2. Я покажу информацию о видео\n" +
			"3. Выбери начало и конец для GIF\n" +
			"4. Максимальная длительность: {max_duration} секунд\n\n" +
			"🔗 Просто отправь ссылку на видео!",
		Help: "Отправьте ссылку на YouTube, настройте отрезок кнопками и нажмите «Готово».\n\n" +
			"Время можно вводить как ЧЧ:ММ:СС, ММ:СС или в секундах.\n" +
			"/cancel сбрасывает текущее видео.",
		PromptStart:            "⏰ Введите время начала в формате HH:MM:SS (например: 00:00:05):",
		PromptEnd:              "⏰ Введите время конца в формате HH:MM:SS (например: 00:00:16):",
		PromptDuration:         "⏱️ Введите желаемую длительность в секундах (макс: {max_duration}):",
		StartSet:               "✅ Начало установлено!",
		EndSet:                 "✅ Конец установлен!",
		DurationSet:            "✅ Длительность установлена!",
		GettingInfo:            "⏳ Получаю информацию о видео...",
		VideoCaption:           "📹 {title}\n⏱ Длительность: {duration}\n\nВыберите временной отрезок для GIF:",
		VideoTitleDefault:      "Без названия",
		CreatingGIF:            "🎬 Создаю GIF...\n📍 Начало: {start_time}\n🏁 Конец: {end_time}\n\n⏳ Это может занять некоторое время...",
		GIFReady:               "✅ GIF готов!\n📹 {title}",
		SettingsTitle:          "⚙️ Настройки GIF\n🎞 Кадров/с: {fps}\n📐 Ширина: {width}px\n🎨 Цветов: {colors}",
		ButtonStart:            "📍 Начало: {time}",
		ButtonEnd:              "🏁 Конец: {time}",
		ButtonDuration:         "⏱️ Длительность: {seconds} сек",
		ButtonSettings:         "⚙️ Настройки",
		ButtonFrameRate:        "🎞 Кадров/с: {value}",
		ButtonWidth:            "📐 Ширина: {value}px",
		ButtonPalette:          "🎨 Цветов: {value}",
		ButtonSelected:         "✅ {value}",
		ButtonBack:             "⬅️ Назад",
		ButtonDone:             "✅ Готово",
		ButtonCancel:           "❌ Отмена",
		ErrorInvalidURL:        "❌ Пожалуйста, отправьте корректную ссылку на YouTube видео",
		ErrorGettingInfo:       "❌ Ошибка при получении информации о видео.",
		ErrorTimeFormat:        "❌ Неверный формат времени. Используйте HH:MM:SS",
		ErrorDurationFormat:    "❌ Неверный формат длительности. Введите число.",
		ErrorStartTooLate:      "❌ Начало не может быть больше длительности видео",
		ErrorEndTooLate:        "❌ Конец не может быть больше длительности видео",
		ErrorEndBeforeStart:    "❌ Конец должен быть после начала",
		ErrorDurationTooLong:   "❌ Максимальная длительность GIF: {max_duration} секунд",
		ErrorDurationPastVideo: "❌ Указанная длительность выходит за пределы видео.",
		ErrorCreatingGIF:       "❌ Ошибка при создании GIF.",
		ErrorBusy:              "⏳ GIF ещё создаётся. Дождитесь окончания.",
		SessionIdleClosed:      "⌛ Видео закрыто из-за бездействия. Отправьте ссылку заново.",
		Cancelled:              "❌ Отменено",
		AlertSessionExpired:    "❌ Сессия истекла. Отправьте ссылку заново.",
		AlertCancelled:         "❌ Отменено",
		AlertEndBeforeStart:    "❌ Конец должен быть после начала!",
		AlertDurationTooLong:   "❌ Максимальная длительность: {max_duration} секунд!",
		AlertBusy:              "⏳ GIF уже создаётся",
		AlertNotSubscribed:     "❌ Сначала подпишитесь на {channel}",
	},
}
